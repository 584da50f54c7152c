// Package contact defines the seven-field contact record and field-name access to it.
package contact

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/cases"

	"github.com/smileynet/addressbook/internal/validate"
)

// Field names a contact attribute.
type Field string

const (
	FieldName      Field = "name"
	FieldMidName   Field = "mid_name"
	FieldSurname   Field = "surname"
	FieldTelephone Field = "telephone"
	FieldMail      Field = "mail"
	FieldAddress   Field = "address"
	FieldURL       Field = "url"
)

// fields lists every Field in canonical order (prompt order, record key order).
var fields = []Field{
	FieldName, FieldMidName, FieldSurname, FieldTelephone, FieldMail, FieldAddress, FieldURL,
}

// labels are the human-readable field names used in prompts and errors.
var labels = map[Field]string{
	FieldName:      "name",
	FieldMidName:   "middle name",
	FieldSurname:   "surname",
	FieldTelephone: "telephone",
	FieldMail:      "mail",
	FieldAddress:   "address",
	FieldURL:       "url",
}

// Sentinel errors for caller-checkable conditions.
var (
	ErrInvalidField = errors.New("contact: invalid field value")
	ErrUnknownField = errors.New("contact: unknown field")
)

// InvalidFieldError reports the field whose value failed validation.
// Its message is the text shown to the user.
type InvalidFieldError struct {
	Field Field
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("Invalid %s!", e.Field.Label())
}

func (e *InvalidFieldError) Unwrap() error {
	return ErrInvalidField
}

// Fields returns all fields in canonical order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// ParseField resolves a field name case-insensitively.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(s))
	if _, ok := labels[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

// Label returns the human-readable name of f ("middle name" for mid_name).
func (f Field) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// Valid reports whether value passes the validator for f.
func (f Field) Valid(value string) bool {
	return validate.Field(string(f), value)
}

// Contact is one address book entry.
type Contact struct {
	Name      string `json:"name" yaml:"name"`
	MidName   string `json:"mid_name" yaml:"mid_name"`
	Surname   string `json:"surname" yaml:"surname"`
	Telephone string `json:"telephone" yaml:"telephone"`
	Mail      string `json:"mail" yaml:"mail"`
	Address   string `json:"address" yaml:"address"`
	URL       string `json:"url" yaml:"url"`
}

// New builds a Contact, validating fields in canonical order.
// The first failing field is returned as an *InvalidFieldError.
func New(name, midName, surname, telephone, mail, address, url string) (Contact, error) {
	c := Contact{
		Name:      name,
		MidName:   midName,
		Surname:   surname,
		Telephone: telephone,
		Mail:      mail,
		Address:   address,
		URL:       url,
	}
	for _, f := range fields {
		if !f.Valid(c.Get(f)) {
			return Contact{}, &InvalidFieldError{Field: f}
		}
	}
	return c, nil
}

// Validate checks every field and returns all failures combined.
func (c Contact) Validate() error {
	var err error
	for _, f := range fields {
		if !f.Valid(c.Get(f)) {
			err = multierr.Append(err, &InvalidFieldError{Field: f})
		}
	}
	return err
}

// Get returns the value of f, or "" for an unknown field.
func (c Contact) Get(f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldMidName:
		return c.MidName
	case FieldSurname:
		return c.Surname
	case FieldTelephone:
		return c.Telephone
	case FieldMail:
		return c.Mail
	case FieldAddress:
		return c.Address
	case FieldURL:
		return c.URL
	}
	return ""
}

// Set overwrites f with value without validating it.
// It returns ErrUnknownField if f is not one of the seven fields.
func (c *Contact) Set(f Field, value string) error {
	switch f {
	case FieldName:
		c.Name = value
	case FieldMidName:
		c.MidName = value
	case FieldSurname:
		c.Surname = value
	case FieldTelephone:
		c.Telephone = value
	case FieldMail:
		c.Mail = value
	case FieldAddress:
		c.Address = value
	case FieldURL:
		c.URL = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	return nil
}

// Pair is one field/value entry of a contact.
type Pair struct {
	Field Field
	Value string
}

// Pairs returns the field/value entries in canonical order.
func (c Contact) Pairs() []Pair {
	out := make([]Pair, len(fields))
	for i, f := range fields {
		out[i] = Pair{Field: f, Value: c.Get(f)}
	}
	return out
}

// HasName reports whether the contact's name equals name, ignoring case.
func (c Contact) HasName(name string) bool {
	fold := cases.Fold()
	return fold.String(c.Name) == fold.String(name)
}

// Matches reports whether term occurs in any field, ignoring case.
func (c Contact) Matches(term string) bool {
	fold := cases.Fold()
	needle := fold.String(term)
	for _, f := range fields {
		if strings.Contains(fold.String(c.Get(f)), needle) {
			return true
		}
	}
	return false
}

// String renders the contact as {field: value, ...} in canonical order.
func (c Contact) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range c.Pairs() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.Field, p.Value)
	}
	b.WriteByte('}')
	return b.String()
}
