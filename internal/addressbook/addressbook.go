// Package addressbook keeps an ordered list of contacts in sync with its backing file.
package addressbook

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/contact"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrEmpty           = errors.New("addressbook: no contacts")
	ErrContactNotFound = errors.New("addressbook: contact not found")
)

// Store persists the records of a named address book.
// Defined here (the consumer); storage.FileStore implements it.
type Store interface {
	Append(book string, c contact.Contact) error
	Rewrite(book string, contacts []contact.Contact) error
	Load(book string) ([]contact.Contact, error)
}

// Book is an address book bound to one backing file.
// It is not safe for concurrent use.
type Book struct {
	name            string
	contacts        []contact.Contact
	store           Store
	logger          *zap.Logger
	validateUpdates bool
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger used for operation diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithUpdateValidation makes Update apply the field validator to the new value.
// Off by default: updates store the value as given.
func WithUpdateValidation(on bool) Option {
	return func(b *Book) {
		b.validateUpdates = on
	}
}

// New returns an empty Book bound to name. It does not touch the backing file.
func New(name string, store Store, opts ...Option) *Book {
	b := &Book{
		name:   name,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("book", name))
	return b
}

// Open returns a Book holding the records already in the backing file.
// Records that fail validation are kept and logged as warnings.
func Open(name string, store Store, opts ...Option) (*Book, error) {
	b := New(name, store, opts...)
	contacts, err := store.Load(name)
	if err != nil {
		return nil, fmt.Errorf("addressbook: opening %s: %w", name, err)
	}
	for i, c := range contacts {
		if err := c.Validate(); err != nil {
			b.logger.Warn("stored contact fails validation",
				zap.Int("index", i), zap.String("name", c.Name), zap.Error(err))
		}
	}
	b.contacts = contacts
	b.logger.Debug("opened", zap.Int("contacts", len(contacts)))
	return b, nil
}

// Name returns the address book name.
func (b *Book) Name() string {
	return b.name
}

// Len returns the number of contacts.
func (b *Book) Len() int {
	return len(b.contacts)
}

// Contacts returns a copy of the contacts in list order.
func (b *Book) Contacts() []contact.Contact {
	out := make([]contact.Contact, len(b.contacts))
	copy(out, b.contacts)
	return out
}

// Add appends c to the list and to the backing file.
// If the file cannot be written the list is left unchanged.
func (b *Book) Add(c contact.Contact) error {
	if err := b.store.Append(b.name, c); err != nil {
		return fmt.Errorf("addressbook: adding %s: %w", c.Name, err)
	}
	b.contacts = append(b.contacts, c)
	b.logger.Debug("contact added", zap.String("name", c.Name), zap.Int("contacts", len(b.contacts)))
	return nil
}

// Find returns the index of the first contact whose name matches, ignoring case.
func (b *Book) Find(name string) (int, bool) {
	for i, c := range b.contacts {
		if c.HasName(name) {
			return i, true
		}
	}
	return -1, false
}

// Update sets one field of the first contact named name and rewrites the backing file.
// The field name is matched case-insensitively.
func (b *Book) Update(name, field, value string) error {
	if len(b.contacts) == 0 {
		return ErrEmpty
	}
	idx, ok := b.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrContactNotFound, name)
	}
	f, err := contact.ParseField(field)
	if err != nil {
		return err
	}
	if b.validateUpdates && !f.Valid(value) {
		return &contact.InvalidFieldError{Field: f}
	}

	updated := b.contacts[idx]
	if err := updated.Set(f, value); err != nil {
		return err
	}
	next := b.Contacts()
	next[idx] = updated
	if err := b.store.Rewrite(b.name, next); err != nil {
		return fmt.Errorf("addressbook: updating %s: %w", name, err)
	}
	b.contacts = next
	b.logger.Debug("contact updated", zap.String("name", name), zap.String("field", string(f)))
	return nil
}

// Delete removes the first contact named name and rewrites the backing file.
func (b *Book) Delete(name string) error {
	if len(b.contacts) == 0 {
		return ErrEmpty
	}
	idx, ok := b.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrContactNotFound, name)
	}

	next := make([]contact.Contact, 0, len(b.contacts)-1)
	next = append(next, b.contacts[:idx]...)
	next = append(next, b.contacts[idx+1:]...)
	if err := b.store.Rewrite(b.name, next); err != nil {
		return fmt.Errorf("addressbook: deleting %s: %w", name, err)
	}
	b.contacts = next
	b.logger.Debug("contact deleted", zap.String("name", name), zap.Int("contacts", len(b.contacts)))
	return nil
}

// Match is the search outcome for one contact.
type Match struct {
	Contact contact.Contact
	Found   bool
}

// Search checks every contact for term in any field, ignoring case.
// It returns one Match per contact in list order.
func (b *Book) Search(term string) []Match {
	out := make([]Match, len(b.contacts))
	for i, c := range b.contacts {
		out[i] = Match{Contact: c, Found: c.Matches(term)}
	}
	return out
}
