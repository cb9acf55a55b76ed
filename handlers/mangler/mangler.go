// Package mangler ports mod_mangler.c's bitflip fault injector. The C
// comment on bitflip is explicit that "this function is not actually a
// callback, although it has the same parameter signature as a callback":
// it only makes sense applied to an already-populated response, so rather
// than register it as a registry entry (the dispatch chain stops at the
// first handler that attaches a response, meaning a later entry would
// never run), this port keeps it as a wrapping combinator around the
// producing handler.
package mangler

import (
	"math/rand"

	"github.com/raybellis/evldns/internal/registry"
	"github.com/raybellis/evldns/internal/wire"
)

// Wrap returns a handler that calls inner, then, if inner attached a
// response, serializes it if necessary and flips nBits random bits in the
// wire bytes. nBits below 1 is treated as 1, matching the C original.
func Wrap(inner registry.Handler, nBits int, rng *rand.Rand) registry.Handler {
	if nBits < 1 {
		nBits = 1
	}
	return func(req registry.Request, userData any, qname string, qtype, qclass uint16) {
		inner(req, userData, qname, qtype, qclass)

		if req.Response() == nil && req.ResponseWire() == nil {
			return
		}
		if req.ResponseWire() == nil {
			b, err := wire.Marshal(req.Response())
			if err != nil {
				return
			}
			req.SetResponseWire(b)
		}

		b := append([]byte(nil), req.ResponseWire()...)
		for i := 0; i < nBits; i++ {
			offset := rng.Intn(len(b))
			bit := rng.Intn(8)
			b[offset] ^= 1 << uint(bit)
		}
		req.SetResponseWire(b)
	}
}
