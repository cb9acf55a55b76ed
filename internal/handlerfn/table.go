// Package handlerfn provides the named function table: a process-global,
// ordered (name, callable) list populated at compile time, before the
// reactor loop starts. It stands in for the dynamic plugin loader of the
// C original, which this port drops in favor of compile-time registration
// of handlers/* packages.
package handlerfn

import "github.com/raybellis/evldns/internal/registry"

// Func is the callable type stored in the table; it is the same shape as
// registry.Handler so entries can be registered into a registry directly.
type Func = registry.Handler

type entry struct {
	name string
	fn   Func
}

// Table is an ordered, first-match-wins (name, callable) list.
type Table struct {
	entries []entry
}

// New creates an empty table.
func New() *Table {
	return &Table{}
}

// Add appends a named function. A later Add with the same name does not
// replace the earlier one; Lookup always returns the first match.
func (t *Table) Add(name string, fn Func) {
	t.entries = append(t.entries, entry{name: name, fn: fn})
}

// Lookup returns the function registered under name, if any.
func (t *Table) Lookup(name string) (Func, bool) {
	for _, e := range t.entries {
		if e.name == name {
			return e.fn, true
		}
	}
	return nil, false
}

// Default is the process-wide table. main packages populate it during
// startup, before the reactor's Run loop begins.
var Default = New()
