package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/smileynet/addressbook/internal/addressbook"
	"github.com/smileynet/addressbook/internal/config"
	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/export"
	"github.com/smileynet/addressbook/internal/logging"
	"github.com/smileynet/addressbook/internal/prompt"
	"github.com/smileynet/addressbook/internal/session"
	"github.com/smileynet/addressbook/internal/storage"
	"github.com/smileynet/addressbook/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI is the top-level command structure for addressbook.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Menu    MenuCmd          `cmd:"" default:"withargs" help:"Open the interactive menu (default)."`
	Create  CreateCmd        `cmd:"" help:"Create an address book."`
	Drop    DropCmd          `cmd:"" help:"Delete an address book and its file."`
	Add     AddCmd           `cmd:"" help:"Add a contact, prompting for each field."`
	Update  UpdateCmd        `cmd:"" help:"Set one field of a contact."`
	Delete  DeleteCmd        `cmd:"" help:"Delete a contact."`
	Search  SearchCmd        `cmd:"" help:"Search contacts by any field."`
	List    ListCmd          `cmd:"" help:"List address books, or the contacts of one."`
	Export  ExportCmd        `cmd:"" help:"Export an address book."`
}

// Globals holds flags shared by every command.
type Globals struct {
	Config  string `help:"Config file, applied over user and project config." type:"path" placeholder:"FILE"`
	Dir     string `help:"Directory holding address book files." placeholder:"DIR"`
	Verbose bool   `help:"Log debug diagnostics to the log output." short:"v"`
}

// bookStore is the storage the commands need.
type bookStore interface {
	session.Store
	List() ([]string, error)
}

// env is the wiring shared by commands after setup.
type env struct {
	cfg      *config.Config
	store    *storage.FileStore
	logger   *zap.Logger
	closeLog func() error
}

// bookOptions returns the addressbook options implied by config.
func (e *env) bookOptions() []addressbook.Option {
	return []addressbook.Option{
		addressbook.WithLogger(e.logger),
		addressbook.WithUpdateValidation(e.cfg.Contacts.ValidateUpdates),
	}
}

// setupError marks failures before any command work starts.
type setupError struct {
	err error
}

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

// setup loads config and builds the logger and store.
func (g *Globals) setup() (*env, error) {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return nil, &setupError{err}
	}
	if g.Dir != "" {
		cfg.Storage.Dir = g.Dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, &setupError{err}
	}
	logger, closeLog, err := logging.New(cfg.Log, g.Verbose)
	if err != nil {
		return nil, &setupError{err}
	}
	logger.Debug("config loaded", zap.String("dir", cfg.Storage.Dir), zap.Bool("validate_updates", cfg.Contacts.ValidateUpdates))
	return &env{
		cfg:      cfg,
		store:    storage.NewFileStore(cfg.Storage.Dir),
		logger:   logger,
		closeLog: closeLog,
	}, nil
}

// loadConfig loads .env, layered config from user, project and explicit
// paths, then env overrides.
func loadConfig(explicit string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	paths := []string{
		os.ExpandEnv("$HOME/.config/addressbook/config.yaml"),
		".addressbook.yaml",
	}
	if explicit != "" {
		paths = append(paths, explicit)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// --- Menu command ---

// MenuCmd runs the interactive 1-7 menu.
type MenuCmd struct {
	Book  string `help:"Open an existing address book before showing the menu." placeholder:"NAME"`
	Plain bool   `help:"Use line prompts even if the terminal supports the TUI."`
}

// Run executes the menu command.
func (m *MenuCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit

	p := tui.NewPrompter(tui.Options{ForcePlain: m.Plain || e.cfg.UI.Plain})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return m.run(ctx, os.Stdout, e, p)
}

// run executes the menu with the given prompter, enabling testable wiring.
// Cancelling ctx ends the menu like "End program".
func (m *MenuCmd) run(ctx context.Context, w io.Writer, e *env, p prompt.Prompter) error {
	s := session.New(e.store, p, w,
		session.WithLogger(e.logger),
		session.WithBookOptions(addressbook.WithUpdateValidation(e.cfg.Contacts.ValidateUpdates)),
	)
	if m.Book != "" {
		if err := s.Open(m.Book); err != nil {
			return fmt.Errorf("menu: %w", err)
		}
	}
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// --- Address book commands ---

// CreateCmd creates an address book file.
type CreateCmd struct {
	Book string `arg:"" help:"Address book name."`
}

// Run executes the create command.
func (c *CreateCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	return c.run(os.Stdout, e.store)
}

// run creates the book in store, enabling testable wiring.
func (c *CreateCmd) run(w io.Writer, store bookStore) error {
	if err := store.Create(c.Book); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	_, _ = fmt.Fprintln(w, session.MsgCreated)
	return nil
}

// DropCmd deletes an address book file.
type DropCmd struct {
	Book string `arg:"" help:"Address book name."`
}

// Run executes the drop command.
func (d *DropCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	return d.run(os.Stdout, e.store)
}

// run removes the book from store, enabling testable wiring.
func (d *DropCmd) run(w io.Writer, store bookStore) error {
	if err := store.Remove(d.Book); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_, _ = fmt.Fprintln(w, session.MsgFileNotFound)
		}
		return fmt.Errorf("drop: %w", err)
	}
	_, _ = fmt.Fprintln(w, session.MsgBookDeleted)
	return nil
}

// --- Contact commands ---

// AddCmd prompts for a new contact and adds it to a book.
type AddCmd struct {
	Book  string `arg:"" help:"Address book name."`
	Plain bool   `help:"Use line prompts even if the terminal supports the TUI."`
}

// Run executes the add command.
func (a *AddCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	p := tui.NewPrompter(tui.Options{ForcePlain: a.Plain || e.cfg.UI.Plain})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return a.run(ctx, os.Stdout, e.store, p, e.bookOptions()...)
}

// run adds one contact read from p, enabling testable wiring.
func (a *AddCmd) run(ctx context.Context, w io.Writer, store bookStore, p prompt.Prompter, opts ...addressbook.Option) error {
	b, err := addressbook.Open(a.Book, store, opts...)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	s := session.New(store, p, w, session.WithBook(b))
	msg, err := s.AddContact(ctx)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	_, _ = fmt.Fprintln(w, msg)
	if msg != session.MsgAdded {
		return fmt.Errorf("add: %w", contact.ErrInvalidField)
	}
	return nil
}

// UpdateCmd sets one field of the first contact with a name.
type UpdateCmd struct {
	Book  string `arg:"" help:"Address book name."`
	Name  string `arg:"" help:"Contact name (case-insensitive)."`
	Field string `arg:"" help:"Field: name, mid_name, surname, telephone, mail, address or url."`
	Value string `arg:"" help:"New value."`
}

// Run executes the update command.
func (u *UpdateCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	return u.run(os.Stdout, e.store, e.bookOptions()...)
}

// run updates the contact in store, enabling testable wiring.
func (u *UpdateCmd) run(w io.Writer, store bookStore, opts ...addressbook.Option) error {
	b, err := addressbook.Open(u.Book, store, opts...)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err := b.Update(u.Name, u.Field, u.Value); err != nil {
		if msg := updateMessage(err); msg != "" {
			_, _ = fmt.Fprintln(w, msg)
		}
		return fmt.Errorf("update: %w", err)
	}
	_, _ = fmt.Fprintln(w, session.MsgUpdated)
	return nil
}

// updateMessage returns the menu wording for an update failure, if it has one.
func updateMessage(err error) string {
	var invalid *contact.InvalidFieldError
	switch {
	case errors.Is(err, addressbook.ErrEmpty):
		return session.MsgUpdateEmpty
	case errors.Is(err, addressbook.ErrContactNotFound):
		return session.MsgNotFound
	case errors.Is(err, contact.ErrUnknownField):
		return session.MsgNoSuchField
	case errors.As(err, &invalid):
		return invalid.Error()
	}
	return ""
}

// DeleteCmd deletes the first contact with a name.
type DeleteCmd struct {
	Book string `arg:"" help:"Address book name."`
	Name string `arg:"" help:"Contact name (case-insensitive)."`
}

// Run executes the delete command.
func (d *DeleteCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	return d.run(os.Stdout, e.store, e.bookOptions()...)
}

// run deletes the contact from store, enabling testable wiring.
func (d *DeleteCmd) run(w io.Writer, store bookStore, opts ...addressbook.Option) error {
	b, err := addressbook.Open(d.Book, store, opts...)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := b.Delete(d.Name); err != nil {
		switch {
		case errors.Is(err, addressbook.ErrEmpty):
			_, _ = fmt.Fprintln(w, session.MsgDeleteEmpty)
		case errors.Is(err, addressbook.ErrContactNotFound):
			_, _ = fmt.Fprintln(w, session.MsgNotFound)
		}
		return fmt.Errorf("delete: %w", err)
	}
	_, _ = fmt.Fprintln(w, session.MsgDeleted)
	return nil
}

// SearchCmd prints, per contact, the record or "Nothing was found!".
type SearchCmd struct {
	Book string `arg:"" help:"Address book name."`
	Term string `arg:"" help:"Text to look for in any field (case-insensitive)."`
}

// Run executes the search command.
func (s *SearchCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	return s.run(os.Stdout, e.store, e.bookOptions()...)
}

// run searches the book in store, enabling testable wiring.
func (s *SearchCmd) run(w io.Writer, store bookStore, opts ...addressbook.Option) error {
	b, err := addressbook.Open(s.Book, store, opts...)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if report := session.FormatMatches(b.Search(s.Term)); report != "" {
		_, _ = fmt.Fprintln(w, report)
	}
	return nil
}

// ListCmd lists books, or the contacts of one book.
type ListCmd struct {
	Book string `arg:"" optional:"" help:"Address book name; omit to list books."`
}

// Run executes the list command.
func (l *ListCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit
	return l.run(os.Stdout, e.store, e.bookOptions()...)
}

// run prints book names or contacts, enabling testable wiring.
func (l *ListCmd) run(w io.Writer, store bookStore, opts ...addressbook.Option) error {
	if l.Book == "" {
		names, err := store.List()
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		for _, name := range names {
			_, _ = fmt.Fprintln(w, name)
		}
		return nil
	}

	b, err := addressbook.Open(l.Book, store, opts...)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	for _, c := range b.Contacts() {
		_, _ = fmt.Fprintln(w, c.String())
	}
	return nil
}

// ExportCmd writes a book in an interchange format.
type ExportCmd struct {
	Book   string `arg:"" help:"Address book name."`
	Format string `help:"Output format: json, yaml or vcard." default:"json" short:"f"`
	Output string `help:"Write to FILE instead of stdout." type:"path" placeholder:"FILE" short:"o"`
}

// Run executes the export command.
func (x *ExportCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.closeLog() //nolint:errcheck // best-effort flush on exit

	if x.Output == "" {
		return x.run(os.Stdout, e.store, export.Default(), e.bookOptions()...)
	}
	f, err := os.Create(x.Output)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := x.run(f, e.store, export.Default(), e.bookOptions()...); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// run exports the book with an exporter from reg, enabling testable wiring.
func (x *ExportCmd) run(w io.Writer, store bookStore, reg *export.Registry, opts ...addressbook.Option) error {
	exp, err := reg.Exporter(x.Format)
	if err != nil {
		return err
	}
	b, err := addressbook.Open(x.Book, store, opts...)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return exp.Export(w, b.Contacts())
}

const (
	exitSuccess   = 0
	exitOperation = 1
	exitSetup     = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *setupError
	if errors.As(err, &se) {
		return exitSetup
	}
	var ufe *export.UnknownFormatError
	if errors.As(err, &ufe) {
		return exitSetup
	}
	return exitOperation
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("addressbook"),
		kong.Description("A personal address book stored in flat files."),
		kong.UsageOnError(),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
