// Command evldnsd is a demo driver for the server framework, ported in
// spirit from trunk/chaos.c's and oas112d.c's main() functions: bind a
// couple of sockets, register a chain of compile-time handlers in the
// same order those C programs did, and run the reactor loop until a
// signal arrives.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/miekg/dns"

	"github.com/raybellis/evldns/handlers/arec"
	"github.com/raybellis/evldns/handlers/as112"
	"github.com/raybellis/evldns/handlers/chaos"
	"github.com/raybellis/evldns/handlers/mangler"
	"github.com/raybellis/evldns/handlers/myip"
	"github.com/raybellis/evldns/handlers/txtrec"
	"github.com/raybellis/evldns/internal/handlerfn"
	"github.com/raybellis/evldns/internal/logging"
	"github.com/raybellis/evldns/internal/reactor"
	"github.com/raybellis/evldns/internal/server"
	"github.com/raybellis/evldns/internal/socketutil"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "evldnsd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg := applyCLIOverrides(flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.LogLevel,
		Structured:       cfg.Structured,
		StructuredFormat: "json",
		IncludePID:       true,
	})

	r, err := reactor.New()
	if err != nil {
		return fmt.Errorf("evldnsd: %w", err)
	}
	defer r.Close()

	srv := server.New(r, logger)

	// Populate the named function table at compile time, in place of the
	// C original's dynamic plugin loading, before any port is added.
	handlerfn.Default.Add("myip", myip.Handler)
	handlerfn.Default.Add("txt", txtrec.New("evldns"))
	handlerfn.Default.Add("a", arec.New(net.ParseIP("127.0.0.1")))

	registerHandlers(srv, cfg)

	udpFD, err := socketutil.BindUDP(cfg.UDPAddr)
	if err != nil {
		return fmt.Errorf("evldnsd: %w", err)
	}
	if _, err := srv.AddPort(udpFD); err != nil {
		return fmt.Errorf("evldnsd: %w", err)
	}

	tcpFD, err := socketutil.BindTCP(cfg.TCPAddr, cfg.TCPBacklog)
	if err != nil {
		return fmt.Errorf("evldnsd: %w", err)
	}
	if _, err := srv.AddPort(tcpFD); err != nil {
		return fmt.Errorf("evldnsd: %w", err)
	}

	logger.Info("evldnsd listening", "udp", cfg.UDPAddr, "tcp", cfg.TCPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	stopReactor := make(chan struct{})
	go func() {
		if err := r.Run(stopReactor); err != nil {
			logger.Error("reactor stopped with error", "err", err)
		}
		close(done)
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	close(stopReactor)
	<-done
	return nil
}

// registerHandlers wires the compile-time handler chain in the same order
// trunk/chaos.c's main() registers callbacks: a request-shape gatekeeper
// first, specific handlers bound to named patterns next, and a catch-all
// last.
func registerHandlers(srv *server.Server, cfg *Config) {
	srv.RegisterHandler("", false, dns.ClassANY, dns.TypeANY, chaos.QueryOnly, nil)

	myipHandler, _ := handlerfn.Default.Lookup("myip")
	if cfg.MangleBits > 0 {
		myipHandler = mangler.Wrap(myipHandler, cfg.MangleBits, rand.New(rand.NewSource(1)))
	}
	srv.RegisterHandler("client.bind", true, dns.ClassANY, dns.TypeANY, myipHandler, nil)

	txtHandler, _ := handlerfn.Default.Lookup("txt")
	srv.RegisterHandler("version.bind", true, dns.ClassANY, dns.TypeTXT, txtHandler, nil)

	aHandler, _ := handlerfn.Default.Lookup("a")
	srv.RegisterHandler("*.local", true, dns.ClassINET, dns.TypeA, aHandler, nil)

	if cfg.AS112Zone != "" {
		srv.RegisterHandler(cfg.AS112Zone, true, dns.ClassANY, dns.TypeANY, as112.New(as112.DefaultZone), nil)
	}

	srv.RegisterHandler("", false, dns.ClassANY, dns.TypeANY, chaos.NXDomain, nil)
}
