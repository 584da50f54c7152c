// Package export writes address book contacts in interchange formats.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/smileynet/addressbook/internal/contact"
)

// Exporter writes a list of contacts in one format.
type Exporter interface {
	Name() string
	Export(w io.Writer, contacts []contact.Contact) error
}

// Factory creates an exporter instance.
type Factory func() Exporter

// Registry maps format names to exporter factories.
// It is not safe for concurrent use; registration should happen at startup.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a Registry with the built-in formats registered.
func Default() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds a named exporter factory. Overwrites if name already exists.
// Panics if name is empty or f is nil (programmer error).
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("export: Register called with empty name")
	}
	if f == nil {
		panic("export: Register called with nil factory")
	}
	r.factories[name] = f
}

// Exporter returns the exporter registered under name.
func (r *Registry) Exporter(name string) (Exporter, error) {
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownFormatError{
			Name:      name,
			Available: r.Formats(),
		}
	}
	return f(), nil
}

// Formats returns registered format names in sorted order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownFormatError indicates a format name is not registered.
type UnknownFormatError struct {
	Name      string
	Available []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("export: unknown format %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
