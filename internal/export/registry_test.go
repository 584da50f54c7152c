package export

import (
	"errors"
	"io"
	"sort"
	"testing"

	"github.com/smileynet/addressbook/internal/contact"
)

type stubExporter struct{ name string }

func (s stubExporter) Name() string { return s.name }
func (stubExporter) Export(io.Writer, []contact.Contact) error { return nil }

func TestRegistry(t *testing.T) {
	t.Run("register and look up exporter", func(t *testing.T) {
		r := NewRegistry()
		r.Register("csv", func() Exporter { return stubExporter{"csv"} })

		e, err := r.Exporter("csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Name() != "csv" {
			t.Errorf("Name() = %q, want %q", e.Name(), "csv")
		}
	})

	t.Run("lookup ignores case", func(t *testing.T) {
		r := Default()

		e, err := r.Exporter("JSON")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Name() != "json" {
			t.Errorf("Name() = %q, want json", e.Name())
		}
	})

	t.Run("unknown format returns UnknownFormatError", func(t *testing.T) {
		r := Default()

		_, err := r.Exporter("xml")
		var ufe *UnknownFormatError
		if !errors.As(err, &ufe) {
			t.Fatalf("expected *UnknownFormatError, got %T", err)
		}
		if ufe.Name != "xml" {
			t.Errorf("Name = %q, want %q", ufe.Name, "xml")
		}
		want := "export: unknown format \"xml\" (available: json, vcard, yaml)"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("formats are sorted", func(t *testing.T) {
		got := Default().Formats()
		if len(got) != 3 || !sort.StringsAreSorted(got) {
			t.Errorf("Formats() = %v, want 3 sorted names", got)
		}
	})

	t.Run("duplicate registration overwrites", func(t *testing.T) {
		r := NewRegistry()
		r.Register("x", func() Exporter { return stubExporter{"first"} })
		r.Register("x", func() Exporter { return stubExporter{"second"} })

		e, err := r.Exporter("x")
		if err != nil {
			t.Fatal(err)
		}
		if e.Name() != "second" {
			t.Errorf("Name() = %q, want second", e.Name())
		}
	})

	t.Run("register panics on empty name", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewRegistry().Register("", func() Exporter { return stubExporter{} })
	})

	t.Run("register panics on nil factory", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		NewRegistry().Register("x", nil)
	})
}
