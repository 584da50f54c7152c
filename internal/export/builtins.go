package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/emersion/go-vcard"
	"gopkg.in/yaml.v3"

	"github.com/smileynet/addressbook/internal/contact"
)

// RegisterBuiltins registers the json, yaml and vcard exporters on reg.
func RegisterBuiltins(reg *Registry) {
	reg.Register("json", func() Exporter { return JSON{} })
	reg.Register("yaml", func() Exporter { return YAML{} })
	reg.Register("vcard", func() Exporter { return VCard{} })
}

// JSON writes contacts as an indented JSON array.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Export(w io.Writer, contacts []contact.Contact) error {
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(contacts); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

// YAML writes contacts as a YAML sequence.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Export(w io.Writer, contacts []contact.Contact) error {
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(contacts); err != nil {
		return fmt.Errorf("export: yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("export: yaml: %w", err)
	}
	return nil
}

// VCard writes one vCard 4.0 per contact.
type VCard struct{}

func (VCard) Name() string { return "vcard" }

func (VCard) Export(w io.Writer, contacts []contact.Contact) error {
	enc := vcard.NewEncoder(w)
	for _, c := range contacts {
		if err := enc.Encode(Card(c)); err != nil {
			return fmt.Errorf("export: vcard %s: %w", c.Name, err)
		}
	}
	return nil
}

// Card converts c to a vCard 4.0 card. Empty fields are left out.
func Card(c contact.Contact) vcard.Card {
	card := make(vcard.Card)
	card.SetValue(vcard.FieldFormattedName, formattedName(c))
	card.SetName(&vcard.Name{
		GivenName:      c.Name,
		AdditionalName: c.MidName,
		FamilyName:     c.Surname,
	})
	if c.Telephone != "" {
		card.AddValue(vcard.FieldTelephone, c.Telephone)
	}
	if c.Mail != "" {
		card.AddValue(vcard.FieldEmail, c.Mail)
	}
	if c.Address != "" {
		card.AddAddress(&vcard.Address{StreetAddress: c.Address})
	}
	if c.URL != "" {
		card.AddValue(vcard.FieldURL, c.URL)
	}
	vcard.ToV4(card)
	return card
}

func formattedName(c contact.Contact) string {
	name := c.Name
	for _, part := range []string{c.MidName, c.Surname} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	return name
}
