package privacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// FileStore is a JSON-file-backed Store used by the ops tooling (export a
// user's data, honor an erasure request) without touching the host database
// directly. The file holds all three tables in one document.
type FileStore struct {
	Path string
}

type fileDoc struct {
	Contacts      []Contact           `json:"contacts"`
	QueuedEmails  []QueuedEmail       `json:"queuedemails"`
	Registrations []RegistrationState `json:"registrations"`
}

func (f *FileStore) load() (*fileDoc, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("privacy: read %s: %w", f.Path, err)
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("privacy: parse %s: %w", f.Path, err)
	}
	return &doc, nil
}

func (f *FileStore) save(doc *fileDoc) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("privacy: marshal store: %w", err)
	}
	if err := os.WriteFile(f.Path, b, 0o644); err != nil {
		return fmt.Errorf("privacy: write %s: %w", f.Path, err)
	}
	return nil
}

func (f *FileStore) ContactsByUser(_ context.Context, userID int64) ([]Contact, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []Contact
	for _, c := range doc.Contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *FileStore) QueuedEmailsByUser(_ context.Context, userID int64) ([]QueuedEmail, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []QueuedEmail
	for _, e := range doc.QueuedEmails {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *FileStore) RegistrationsByUser(_ context.Context, userID int64) ([]RegistrationState, error) {
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	var out []RegistrationState
	for _, r := range doc.Registrations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FileStore) DeleteUser(_ context.Context, userID int64) error {
	doc, err := f.load()
	if err != nil {
		return err
	}

	next := &fileDoc{}
	for _, c := range doc.Contacts {
		if c.UserID != userID {
			next.Contacts = append(next.Contacts, c)
		}
	}
	for _, e := range doc.QueuedEmails {
		if e.UserID != userID {
			next.QueuedEmails = append(next.QueuedEmails, e)
		}
	}
	for _, r := range doc.Registrations {
		if r.UserID != userID {
			next.Registrations = append(next.Registrations, r)
		}
	}

	return f.save(next)
}
