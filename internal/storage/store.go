// Package storage persists address books as flat text files of serialized contact records.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smileynet/addressbook/internal/contact"
)

// WelcomeLine is written to a backing file each time its address book is created.
const WelcomeLine = "Welcome to addressbook!"

const fileExt = ".txt"

// Sentinel errors for caller-checkable conditions.
var (
	ErrNotFound    = errors.New("storage: address book not found")
	ErrInvalidName = errors.New("storage: invalid address book name")
)

// FileStore keeps one <name>.txt file per address book under a base directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory holding the backing files.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the backing file path for book.
func (s *FileStore) Path(book string) (string, error) {
	if book == "" || book == "." || book == ".." || book != filepath.Base(book) || strings.ContainsAny(book, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, book)
	}
	return filepath.Join(s.dir, book+fileExt), nil
}

// Create opens (or creates) the backing file and appends the welcome line.
// Existing records are left in place.
func (s *FileStore) Create(book string) error {
	p, err := s.Path(book)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("storage: creating directory: %w", err)
	}
	return appendTo(p, []byte(WelcomeLine+"\n"))
}

// Append writes one serialized record to the end of the backing file.
func (s *FileStore) Append(book string, c contact.Contact) error {
	p, err := s.Path(book)
	if err != nil {
		return err
	}
	data, err := encodeRecord(c)
	if err != nil {
		return err
	}
	return appendTo(p, data)
}

// Rewrite replaces the backing file with the given records, in order.
// The welcome line is not written.
func (s *FileStore) Rewrite(book string, contacts []contact.Contact) error {
	p, err := s.Path(book)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, c := range contacts {
		data, err := encodeRecord(c)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("storage: writing %s: %w", p, err)
	}
	return nil
}

// Load reads every record from the backing file in file order.
func (s *FileStore) Load(book string) ([]contact.Contact, error) {
	p, err := s.Path(book)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, book)
		}
		return nil, fmt.Errorf("storage: reading %s: %w", p, err)
	}
	contacts, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("storage: parsing %s: %w", p, err)
	}
	return contacts, nil
}

// Remove deletes the backing file. A missing file returns ErrNotFound.
func (s *FileStore) Remove(book string) error {
	p, err := s.Path(book)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, book)
		}
		return fmt.Errorf("storage: removing %s: %w", p, err)
	}
	return nil
}

// Exists reports whether the backing file for book is present.
func (s *FileStore) Exists(book string) bool {
	p, err := s.Path(book)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// List returns the names of all address books in the directory, sorted.
// A missing directory yields an empty list.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: listing %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func appendTo(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage: opening %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: closing %s: %w", path, err)
	}
	return nil
}

// encodeRecord serializes one contact as a compact JSON object with no trailing newline.
func encodeRecord(c contact.Contact) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("storage: encoding record: %w", err)
	}
	return data, nil
}

// decodeRecords parses back-to-back JSON records, skipping welcome lines between them.
func decodeRecords(data []byte) ([]contact.Contact, error) {
	var contacts []contact.Contact
	rest := data
	for {
		rest = bytes.TrimLeft(rest, " \t\r\n")
		if len(rest) == 0 {
			return contacts, nil
		}
		if bytes.HasPrefix(rest, []byte(WelcomeLine)) {
			rest = rest[len(WelcomeLine):]
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(rest))
		dec.DisallowUnknownFields()
		var c contact.Contact
		if err := dec.Decode(&c); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("truncated record after %d contacts: %w", len(contacts), err)
			}
			return nil, fmt.Errorf("record %d: %w", len(contacts)+1, err)
		}
		contacts = append(contacts, c)
		rest = rest[dec.InputOffset():]
	}
}
