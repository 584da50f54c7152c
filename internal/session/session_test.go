package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smileynet/addressbook/internal/addressbook"
	"github.com/smileynet/addressbook/internal/contact"
	"github.com/smileynet/addressbook/internal/prompt"
	"github.com/smileynet/addressbook/internal/storage"
)

// annaInput answers the seven AddContact questions with valid values.
const annaInput = "Anna\nMaria\nPetrosyan\n+37412345678\nanna@example.com\nAbovyan 12/3\nhttps://anna.example.com\n"

// aramInput answers the seven AddContact questions with valid values.
const aramInput = "Aram\nKaren\nSargsyan\n012345678\naram@example.am\nTumanyan 5\nhttp://aram.am\n"

type harness struct {
	dir   string
	store *storage.FileStore
	out   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{dir: dir, store: storage.NewFileStore(dir), out: &bytes.Buffer{}}
}

// session returns a Session reading the given scripted input.
func (h *harness) session(input string, opts ...Option) *Session {
	p := prompt.NewLinePrompter(strings.NewReader(input), h.out)
	return New(h.store, p, h.out, opts...)
}

// withBook returns a Session whose current book "friends" is created and empty.
func (h *harness) withBook(t *testing.T, input string, opts ...Option) *Session {
	t.Helper()
	if err := h.store.Create("friends"); err != nil {
		t.Fatal(err)
	}
	opts = append(opts, WithBook(addressbook.New("friends", h.store)))
	return h.session(input, opts...)
}

func (h *harness) file(t *testing.T, book string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.dir, book+".txt"))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestAddContact_Success(t *testing.T) {
	// Given: a session with an empty book and valid answers
	h := newHarness(t)
	s := h.withBook(t, annaInput)

	// When: AddContact runs
	msg, err := s.AddContact(context.Background())

	// Then: the contact is stored and success is reported
	if err != nil {
		t.Fatalf("AddContact() error = %v", err)
	}
	if msg != MsgAdded {
		t.Errorf("msg = %q, want %q", msg, MsgAdded)
	}
	if s.Book().Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Book().Len())
	}
	if got := s.Book().Contacts()[0]; got.URL != "https://anna.example.com" || got.MidName != "Maria" {
		t.Errorf("contact = %+v", got)
	}
	if !strings.Contains(h.file(t, "friends"), `"name":"Anna"`) {
		t.Error("record not appended to file")
	}
}

func TestAddContact_AsksInFieldOrder(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, annaInput)

	if _, err := s.AddContact(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := "Enter a name: Enter a middle name: Enter a surname: Enter a telephone: " +
		"Enter a mail: Enter an address: Enter a url: "
	if h.out.String() != want {
		t.Errorf("questions = %q, want %q", h.out.String(), want)
	}
}

func TestAddContact_AbortsOnFirstInvalidField(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMsg   string
		questions int
	}{
		{"empty name", "\n", "Invalid name!", 1},
		{"bad middle name", "Anna\nM\n", "Invalid middle name!", 2},
		{"bad surname", "Anna\nMaria\nP1\n", "Invalid surname!", 3},
		{"bad telephone", "Anna\nMaria\nPetrosyan\n12345678\n", "Invalid telephone!", 4},
		{"bad mail", "Anna\nMaria\nPetrosyan\n012345678\nmail\n", "Invalid mail!", 5},
		{"bad address", "Anna\nMaria\nPetrosyan\n012345678\na@b.cd\nStreet, 1\n", "Invalid address!", 6},
		{"bad url", "Anna\nMaria\nPetrosyan\n012345678\na@b.cd\nStreet 1\nnope\n", "Invalid url!", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			s := h.withBook(t, tt.input+"leftover\n")
			before := h.file(t, "friends")

			msg, err := s.AddContact(context.Background())

			if err != nil {
				t.Fatalf("AddContact() error = %v", err)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if got := strings.Count(h.out.String(), "Enter "); got != tt.questions {
				t.Errorf("questions asked = %d, want %d", got, tt.questions)
			}
			if s.Book().Len() != 0 {
				t.Errorf("Len() = %d, want 0", s.Book().Len())
			}
			if after := h.file(t, "friends"); after != before {
				t.Errorf("file changed: %q", after)
			}
		})
	}
}

func TestAddContact_InputEnds(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, "Anna\nMaria\n")

	if _, err := s.AddContact(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("AddContact() error = %v, want io.EOF", err)
	}
	if s.Book().Len() != 0 {
		t.Error("partial contact kept")
	}
}

func TestOperations_RequireBook(t *testing.T) {
	h := newHarness(t)
	s := h.session("")

	for name, op := range map[string]func(context.Context) (string, error){
		"add":    s.AddContact,
		"update": s.UpdateContact,
		"delete": s.DeleteContact,
		"search": s.SearchContact,
	} {
		if _, err := op(context.Background()); !errors.Is(err, ErrNoBook) {
			t.Errorf("%s error = %v, want ErrNoBook", name, err)
		}
	}
}

func TestUpdateContact(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		input    string
		wantMsg  string
		wantMail string
	}{
		{"updates field", nil, "anna\nMAIL\nnew@example.com\n", MsgUpdated, "new@example.com"},
		{"unknown name", nil, "Bob\n", MsgNotFound, "anna@example.com"},
		{"unknown field", nil, "Anna\nnickname\nAni\n", MsgNoSuchField, "anna@example.com"},
		{"no validation by default", nil, "Anna\nmail\nnot-a-mail\n", MsgUpdated, "not-a-mail"},
		{
			"validation when enabled",
			[]Option{WithBookOptions(addressbook.WithUpdateValidation(true))},
			"Anna\nmail\nnot-a-mail\n",
			"Invalid mail!",
			"anna@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if err := h.store.Create("friends"); err != nil {
				t.Fatal(err)
			}
			seed := h.session(annaInput, tt.opts...)
			if err := seed.Open("friends"); err != nil {
				t.Fatal(err)
			}
			if _, err := seed.AddContact(context.Background()); err != nil {
				t.Fatal(err)
			}

			s := h.session(tt.input, append(tt.opts, WithBook(seed.Book()))...)
			msg, err := s.UpdateContact(context.Background())

			if err != nil {
				t.Fatalf("UpdateContact() error = %v", err)
			}
			if msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if got := s.Book().Contacts()[0].Mail; got != tt.wantMail {
				t.Errorf("mail = %q, want %q", got, tt.wantMail)
			}
		})
	}
}

func TestUpdateContact_EmptyBookAsksNothing(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, "")

	msg, err := s.UpdateContact(context.Background())

	if err != nil || msg != MsgUpdateEmpty {
		t.Errorf("UpdateContact() = %q, %v, want %q", msg, err, MsgUpdateEmpty)
	}
	if h.out.Len() != 0 {
		t.Errorf("asked %q on empty book", h.out.String())
	}
}

func TestDeleteContact(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, annaInput+aramInput+"nobody\nANNA\n")
	for i := 0; i < 2; i++ {
		if msg, err := s.AddContact(context.Background()); err != nil || msg != MsgAdded {
			t.Fatalf("AddContact() = %q, %v", msg, err)
		}
	}

	msg, err := s.DeleteContact(context.Background())
	if err != nil || msg != MsgNotFound {
		t.Errorf("DeleteContact(nobody) = %q, %v, want %q", msg, err, MsgNotFound)
	}
	if s.Book().Len() != 2 {
		t.Fatalf("Len() = %d after failed delete", s.Book().Len())
	}

	msg, err = s.DeleteContact(context.Background())
	if err != nil || msg != MsgDeleted {
		t.Errorf("DeleteContact(ANNA) = %q, %v, want %q", msg, err, MsgDeleted)
	}
	if s.Book().Len() != 1 || s.Book().Contacts()[0].Name != "Aram" {
		t.Errorf("contacts = %+v, want only Aram", s.Book().Contacts())
	}
	content := h.file(t, "friends")
	if strings.Contains(content, "Anna") || strings.Contains(content, storage.WelcomeLine) {
		t.Errorf("file = %q, want only Aram's record", content)
	}
}

func TestDeleteContact_EmptyBook(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, "")

	if msg, err := s.DeleteContact(context.Background()); err != nil || msg != MsgDeleteEmpty {
		t.Errorf("DeleteContact() = %q, %v, want %q", msg, err, MsgDeleteEmpty)
	}
}

func TestSearchContact(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, annaInput+aramInput+"PETRO\n")
	for i := 0; i < 2; i++ {
		if _, err := s.AddContact(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	msg, err := s.SearchContact(context.Background())
	if err != nil {
		t.Fatalf("SearchContact() error = %v", err)
	}

	lines := strings.Split(msg, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q, want 2", lines)
	}
	if !strings.HasPrefix(lines[0], "{name: Anna,") {
		t.Errorf("lines[0] = %q, want Anna's record", lines[0])
	}
	if lines[1] != MsgNothingFound {
		t.Errorf("lines[1] = %q, want %q", lines[1], MsgNothingFound)
	}
}

func TestSearchContact_EmptyBook(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, "x\n")

	msg, err := s.SearchContact(context.Background())
	if err != nil || msg != "" {
		t.Errorf("SearchContact() = %q, %v, want empty report", msg, err)
	}
}

func TestCreateAddressbook(t *testing.T) {
	// Given: a session with no book
	h := newHarness(t)
	s := h.session("work\n")

	// When: CreateAddressbook runs
	msg, err := s.CreateAddressbook(context.Background())

	// Then: the file has the welcome line and an empty book is current
	if err != nil || msg != MsgCreated {
		t.Fatalf("CreateAddressbook() = %q, %v", msg, err)
	}
	if got := h.file(t, "work"); got != storage.WelcomeLine+"\n" {
		t.Errorf("file = %q", got)
	}
	if s.Book() == nil || s.Book().Name() != "work" || s.Book().Len() != 0 {
		t.Errorf("current book = %+v", s.Book())
	}
}

func TestCreateAddressbook_ExistingFileWarns(t *testing.T) {
	// Given: a book file that already holds a contact
	h := newHarness(t)
	seed := h.withBook(t, annaInput)
	if msg, err := seed.AddContact(context.Background()); err != nil || msg != MsgAdded {
		t.Fatalf("AddContact() = %q, %v", msg, err)
	}
	core, logs := observer.New(zapcore.WarnLevel)
	s := h.session("friends\n", WithLogger(zap.New(core)))

	// When: a book with the same name is created
	msg, err := s.CreateAddressbook(context.Background())

	// Then: an empty book is current, the header is appended and a warning is logged
	if err != nil || msg != MsgCreated {
		t.Fatalf("CreateAddressbook() = %q, %v", msg, err)
	}
	if s.Book() == nil || s.Book().Len() != 0 {
		t.Errorf("current book = %+v, want empty", s.Book())
	}
	got := h.file(t, "friends")
	if strings.Count(got, storage.WelcomeLine) != 2 || !strings.HasSuffix(got, storage.WelcomeLine+"\n") {
		t.Errorf("file = %q, want a second welcome line appended", got)
	}
	entries := logs.FilterField(zap.String("book", "friends")).All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("warnings = %+v, want one for friends", entries)
	}
}

func TestCreateAddressbook_NewFileLogsNoWarning(t *testing.T) {
	h := newHarness(t)
	core, logs := observer.New(zapcore.WarnLevel)
	s := h.session("work\n", WithLogger(zap.New(core)))

	if _, err := s.CreateAddressbook(context.Background()); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 0 {
		t.Errorf("logged %d warnings for a new book", logs.Len())
	}
}

func TestCreateAddressbook_InvalidName(t *testing.T) {
	h := newHarness(t)
	s := h.session("../escape\n")

	msg, err := s.CreateAddressbook(context.Background())
	if err != nil || msg != MsgInvalidBookName {
		t.Errorf("CreateAddressbook() = %q, %v, want %q", msg, err, MsgInvalidBookName)
	}
	if s.Book() != nil {
		t.Error("book opened for invalid name")
	}
}

func TestDeleteAddressbook(t *testing.T) {
	h := newHarness(t)
	s := h.withBook(t, "other\nfriends\nfriends\n")
	if err := h.store.Create("other"); err != nil {
		t.Fatal(err)
	}

	// Deleting another book keeps the current one.
	if msg, err := s.DeleteAddressbook(context.Background()); err != nil || msg != MsgBookDeleted {
		t.Fatalf("DeleteAddressbook(other) = %q, %v", msg, err)
	}
	if s.Book() == nil {
		t.Fatal("current book closed by deleting another book")
	}

	// Deleting the current book closes it.
	if msg, err := s.DeleteAddressbook(context.Background()); err != nil || msg != MsgBookDeleted {
		t.Fatalf("DeleteAddressbook(friends) = %q, %v", msg, err)
	}
	if s.Book() != nil {
		t.Error("current book still open after its file was deleted")
	}
	if h.store.Exists("friends") {
		t.Error("file still exists")
	}

	// Deleting again reports the missing file.
	if msg, err := s.DeleteAddressbook(context.Background()); err != nil || msg != MsgFileNotFound {
		t.Errorf("DeleteAddressbook(again) = %q, %v, want %q", msg, err, MsgFileNotFound)
	}
}

func TestOpen(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Create("friends"); err != nil {
		t.Fatal(err)
	}
	anna, err := contact.New("Anna", "Maria", "Petrosyan", "012345678", "a@b.cd", "Street 1", "https://a.am")
	if err != nil {
		t.Fatal(err)
	}
	if err := h.store.Append("friends", anna); err != nil {
		t.Fatal(err)
	}

	s := h.session("")
	if err := s.Open("friends"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Book().Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Book().Len())
	}
	if err := s.Open("ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Open(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestRun_FullFlow(t *testing.T) {
	// Given: a scripted menu session
	h := newHarness(t)
	input := strings.Join([]string{
		"5", "friends", // create
		"1", strings.TrimSuffix(annaInput, "\n"), // add
		"4", "maria", // search
		"2", "anna", "surname", "Hakobyan", // update
		"3", "anna", // delete
		"9",  // invalid
		"7",  // exit
		"5", // never read
	}, "\n") + "\n"
	s := h.session(input)

	// When: Run is called
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Then: each operation reported its result in order
	out := h.out.String()
	wantInOrder := []string{
		MsgCreated,
		MsgAdded,
		"{name: Anna, mid_name: Maria, surname: Petrosyan,",
		MsgUpdated,
		MsgDeleted,
		MsgInvalidOption,
	}
	pos := 0
	for _, want := range wantInOrder {
		i := strings.Index(out[pos:], want)
		if i < 0 {
			t.Fatalf("output missing %q after offset %d:\n%s", want, pos, out)
		}
		pos += i + len(want)
	}
	if strings.Count(out, MenuQuestion) != 7 {
		t.Errorf("menu shown %d times, want 7", strings.Count(out, MenuQuestion))
	}
	if got := h.file(t, "friends"); got != "" {
		t.Errorf("file = %q, want empty after delete rewrite", got)
	}
}

func TestRun_MenuListsOptions(t *testing.T) {
	h := newHarness(t)
	s := h.session("7\n")

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i, label := range MenuOptions() {
		line := string(rune('1'+i)) + " - " + label
		if !strings.Contains(h.out.String(), line) {
			t.Errorf("menu missing %q", line)
		}
	}
	if len(MenuOptions()) != 7 {
		t.Errorf("menu has %d options, want 7", len(MenuOptions()))
	}
}

func TestRun_GuidanceWithoutBook(t *testing.T) {
	h := newHarness(t)
	s := h.session("1\n2\n3\n4\n")

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, item := range menu[:4] {
		if !strings.Contains(h.out.String(), item.guidance) {
			t.Errorf("output missing guidance %q", item.guidance)
		}
	}
}

func TestRun_EndsOnEOF(t *testing.T) {
	h := newHarness(t)
	s := h.session("5\n")

	if err := s.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil on EOF", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t)
	s := h.session("7\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_CancelInterruptsPendingPrompt(t *testing.T) {
	// Given: a menu waiting on input that stays open
	h := newHarness(t)
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()
	s := New(h.store, prompt.NewLinePrompter(pr, io.Discard), h.out)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)

	// When: the context is cancelled, as on an interrupt signal
	cancel()

	// Then: Run returns without waiting for another line
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() still waiting for input after cancel")
	}
}

func TestRun_CancelInsideOperation(t *testing.T) {
	// Given: an add contact prompt waiting for the second field
	h := newHarness(t)
	if err := h.store.Create("friends"); err != nil {
		t.Fatal(err)
	}
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()
	s := New(h.store, prompt.NewLinePrompter(pr, io.Discard), h.out,
		WithBook(addressbook.New("friends", h.store)))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	if _, err := io.WriteString(pw, "1\nAnna\n"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	// When: the context is cancelled mid-operation
	cancel()

	// Then: Run stops and nothing was stored
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() still waiting for input after cancel")
	}
	if got := h.file(t, "friends"); got != storage.WelcomeLine+"\n" {
		t.Errorf("file = %q, want only the welcome line", got)
	}
}

func TestRun_ChoiceMustMatchExactly(t *testing.T) {
	tests := []struct {
		name   string
		choice string
	}{
		{"surrounding spaces", " 1 "},
		{"trailing space", "1 "},
		{"leading tab", "\t1"},
		{"leading zero", "01"},
		{"zero", "0"},
		{"out of range", "8"},
		{"word", "one"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			s := h.session(tt.choice + "\n7\n")

			if err := s.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			out := h.out.String()
			if strings.Count(out, MsgInvalidOption) != 1 {
				t.Errorf("output should reject %q once:\n%s", tt.choice, out)
			}
			if strings.Contains(out, menu[0].guidance) {
				t.Errorf("%q ran Add contact:\n%s", tt.choice, out)
			}
		})
	}
}

// brokenStore fails every write after creation.
type brokenStore struct {
	*storage.FileStore
}

func (brokenStore) Append(string, contact.Contact) error { return errors.New("disk full") }

func TestRun_StorageFailurePrintsGuidanceAndLogs(t *testing.T) {
	// Given: a store whose appends fail
	h := newHarness(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	store := brokenStore{h.store}
	p := prompt.NewLinePrompter(strings.NewReader("5\nfriends\n1\n"+annaInput+"7\n"), h.out)
	s := New(store, p, h.out, WithLogger(zap.New(core)))

	// When: a contact is added through the menu
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Then: the guidance message is printed and the cause is logged
	if !strings.Contains(h.out.String(), menu[0].guidance) {
		t.Errorf("output missing guidance:\n%s", h.out.String())
	}
	entries := logs.FilterMessage("operation failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d failures, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["operation"]; got != "Add contact" {
		t.Errorf("operation = %v, want Add contact", got)
	}
}
