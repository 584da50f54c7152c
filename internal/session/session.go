// Package session drives address book operations from interactive prompts.
// A Session replaces process-wide "current address book" state: every
// operation acts on the book the session holds.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/addressbook"
	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/prompt"
	"github.com/smileynet/addressbook/internal/storage"
)

// User-facing result messages.
const (
	MsgAdded           = "Contact added successfully!"
	MsgUpdated         = "Updated successfully!"
	MsgUpdateEmpty     = "Before update a contact you must create it."
	MsgNotFound        = "No contact was found with that name!"
	MsgNoSuchField     = "No such field in contact."
	MsgDeleted         = "Deleted successfully!"
	MsgDeleteEmpty     = "No contacts to delete"
	MsgNothingFound    = "Nothing was found!"
	MsgCreated         = "Created successfully!"
	MsgBookDeleted     = "Deleted successfully"
	MsgFileNotFound    = "File not found."
	MsgInvalidBookName = "Invalid addressbook name!"
	MsgInvalidOption   = "Please choose one of these numbers only, from 1 to 7!"
)

// Questions asked by the operations, in the order they are asked.
const (
	AskUpdateName  = "Enter a contact name whose information you want to update: "
	AskUpdateField = "Enter a field you want to update (ex. name,mid_name,surname,telephone,mail,address,url): "
	AskUpdateValue = "Enter an updated value: "
	AskDeleteName  = "Enter a contact name you want to delete: "
	AskSearchTerm  = "Enter searching word: "
	AskCreateBook  = "Enter a name for addressbook: "
	AskDeleteBook  = "Type the name of addressbook you want to delete: "
)

// fieldQuestions are asked by AddContact in canonical field order.
var fieldQuestions = map[contact.Field]string{
	contact.FieldName:      "Enter a name: ",
	contact.FieldMidName:   "Enter a middle name: ",
	contact.FieldSurname:   "Enter a surname: ",
	contact.FieldTelephone: "Enter a telephone: ",
	contact.FieldMail:      "Enter a mail: ",
	contact.FieldAddress:   "Enter an address: ",
	contact.FieldURL:       "Enter a url: ",
}

// ErrNoBook indicates an operation needs an address book and none is open.
var ErrNoBook = errors.New("session: no address book open")

// Store is the persistence the session needs: record access plus file lifecycle.
type Store interface {
	addressbook.Store
	Create(book string) error
	Remove(book string) error
	Exists(book string) bool
}

// Session holds the current address book and the prompter used to fill it.
type Session struct {
	store    Store
	prompter prompt.Prompter
	out      io.Writer
	logger   *zap.Logger
	bookOpts []addressbook.Option
	book     *addressbook.Book
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for diagnostics. Books opened by the session share it.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBookOptions sets options applied to every book the session creates or opens.
func WithBookOptions(opts ...addressbook.Option) Option {
	return func(s *Session) {
		s.bookOpts = append(s.bookOpts, opts...)
	}
}

// WithBook makes b the current address book.
func WithBook(b *addressbook.Book) Option {
	return func(s *Session) {
		s.book = b
	}
}

// New creates a Session. Menu output and search results go to out.
func New(store Store, p prompt.Prompter, out io.Writer, opts ...Option) *Session {
	s := &Session{
		store:    store,
		prompter: p,
		out:      out,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book returns the current address book, or nil if none is open.
func (s *Session) Book() *addressbook.Book {
	return s.book
}

// Open loads an existing address book and makes it current.
func (s *Session) Open(name string) error {
	b, err := addressbook.Open(name, s.store, s.options()...)
	if err != nil {
		return err
	}
	s.book = b
	return nil
}

func (s *Session) options() []addressbook.Option {
	return append([]addressbook.Option{addressbook.WithLogger(s.logger)}, s.bookOpts...)
}

// AddContact asks for the seven fields in order, stopping at the first invalid answer.
// Nothing is kept from an aborted attempt.
func (s *Session) AddContact(ctx context.Context) (string, error) {
	if s.book == nil {
		return "", ErrNoBook
	}
	var draft contact.Contact
	for _, f := range contact.Fields() {
		answer, err := s.prompter.Ask(ctx, fieldQuestions[f])
		if err != nil {
			return "", err
		}
		if !f.Valid(answer) {
			return (&contact.InvalidFieldError{Field: f}).Error(), nil
		}
		if err := draft.Set(f, answer); err != nil {
			return "", err
		}
	}

	c, err := contact.New(draft.Name, draft.MidName, draft.Surname, draft.Telephone, draft.Mail, draft.Address, draft.URL)
	if err != nil {
		return err.Error(), nil
	}
	if err := s.book.Add(c); err != nil {
		return "", err
	}
	return MsgAdded, nil
}

// UpdateContact asks for a contact name, a field and a new value.
func (s *Session) UpdateContact(ctx context.Context) (string, error) {
	if s.book == nil {
		return "", ErrNoBook
	}
	if s.book.Len() == 0 {
		return MsgUpdateEmpty, nil
	}
	name, err := s.prompter.Ask(ctx, AskUpdateName)
	if err != nil {
		return "", err
	}
	if _, ok := s.book.Find(name); !ok {
		return MsgNotFound, nil
	}
	field, err := s.prompter.Ask(ctx, AskUpdateField)
	if err != nil {
		return "", err
	}
	value, err := s.prompter.Ask(ctx, AskUpdateValue)
	if err != nil {
		return "", err
	}

	err = s.book.Update(name, field, value)
	var invalid *contact.InvalidFieldError
	switch {
	case err == nil:
		return MsgUpdated, nil
	case errors.Is(err, contact.ErrUnknownField):
		return MsgNoSuchField, nil
	case errors.As(err, &invalid):
		return invalid.Error(), nil
	}
	return "", err
}

// DeleteContact asks for a contact name and removes the first match.
func (s *Session) DeleteContact(ctx context.Context) (string, error) {
	if s.book == nil {
		return "", ErrNoBook
	}
	if s.book.Len() == 0 {
		return MsgDeleteEmpty, nil
	}
	name, err := s.prompter.Ask(ctx, AskDeleteName)
	if err != nil {
		return "", err
	}
	if err := s.book.Delete(name); err != nil {
		if errors.Is(err, addressbook.ErrContactNotFound) {
			return MsgNotFound, nil
		}
		return "", err
	}
	return MsgDeleted, nil
}

// SearchContact asks for a term and reports, per contact, the record or MsgNothingFound.
// An empty book yields an empty report.
func (s *Session) SearchContact(ctx context.Context) (string, error) {
	if s.book == nil {
		return "", ErrNoBook
	}
	term, err := s.prompter.Ask(ctx, AskSearchTerm)
	if err != nil {
		return "", err
	}
	return FormatMatches(s.book.Search(term)), nil
}

// FormatMatches renders one line per search result.
func FormatMatches(matches []addressbook.Match) string {
	lines := make([]string, len(matches))
	for i, m := range matches {
		if m.Found {
			lines[i] = m.Contact.String()
		} else {
			lines[i] = MsgNothingFound
		}
	}
	return strings.Join(lines, "\n")
}

// CreateAddressbook asks for a name, writes the welcome line to its file and
// makes a new empty book current. An existing file keeps its records until
// the next rewrite, so creating over it is logged as a warning.
func (s *Session) CreateAddressbook(ctx context.Context) (string, error) {
	name, err := s.prompter.Ask(ctx, AskCreateBook)
	if err != nil {
		return "", err
	}
	existed := s.store.Exists(name)
	if err := s.store.Create(name); err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return MsgInvalidBookName, nil
		}
		return "", err
	}
	if existed {
		s.logger.Warn("address book already exists, starting empty", zap.String("book", name))
	}
	s.book = addressbook.New(name, s.store, s.options()...)
	s.logger.Info("address book created", zap.String("book", name))
	return MsgCreated, nil
}

// DeleteAddressbook asks for a name and removes its file.
// Deleting the current book closes it.
func (s *Session) DeleteAddressbook(ctx context.Context) (string, error) {
	name, err := s.prompter.Ask(ctx, AskDeleteBook)
	if err != nil {
		return "", err
	}
	if err := s.store.Remove(name); err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return MsgFileNotFound, nil
		}
		return "", err
	}
	if s.book != nil && s.book.Name() == name {
		s.book = nil
	}
	s.logger.Info("address book deleted", zap.String("book", name))
	return MsgBookDeleted, nil
}

// menu entries, numbered from 1.
type menuItem struct {
	label    string
	action   func(*Session, context.Context) (string, error)
	guidance string // printed when the action fails
}

var menu = []menuItem{
	{"Add contact", (*Session).AddContact, "Before adding contact you must create addressbook"},
	{"Update contact", (*Session).UpdateContact, "Before update a contact you must create it."},
	{"Delete contact", (*Session).DeleteContact, "Before deleting a contact you must create addressbook and add contact"},
	{"Search contact", (*Session).SearchContact, "Before searching a contact you must create addressbook"},
	{"Create new addressbook", (*Session).CreateAddressbook, "Could not create addressbook"},
	{"Delete addressbook", (*Session).DeleteAddressbook, "No such addressbook"},
	{"End program", nil, ""},
}

// Menu texts.
const (
	MenuTitle    = "Here are available options:"
	MenuQuestion = "Please choose one of these option numbers: "
)

// MenuOptions returns the menu labels in option order.
func MenuOptions() []string {
	labels := make([]string, len(menu))
	for i, item := range menu {
		labels[i] = item.label
	}
	return labels
}

// Run shows the menu until the user picks "End program", input ends,
// or ctx is cancelled. Cancellation interrupts a pending prompt and is
// returned as ctx.Err(). Operation failures print guidance and keep the loop going.
func (s *Session) Run(ctx context.Context) error {
	options := MenuOptions()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, err := s.prompter.Choose(ctx, MenuTitle, options, MenuQuestion)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("session: reading menu choice: %w", err)
		}

		item, ok := lookup(choice)
		if !ok {
			s.println(MsgInvalidOption)
			continue
		}
		if item.action == nil {
			return nil
		}

		msg, err := item.action(s, ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if !errors.Is(err, ErrNoBook) {
				s.logger.Error("operation failed", zap.String("operation", item.label), zap.Error(err))
			}
			s.println(item.guidance)
			continue
		}
		if msg != "" {
			s.println(msg)
		}
	}
}

// lookup matches choice exactly: surrounding spaces make it invalid.
func lookup(choice string) (menuItem, bool) {
	if len(choice) != 1 || choice[0] < '1' || int(choice[0]-'0') > len(menu) {
		return menuItem{}, false
	}
	return menu[choice[0]-'1'], true
}

func (s *Session) println(msg string) {
	_, _ = fmt.Fprintln(s.out, msg)
}
