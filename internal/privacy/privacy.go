// Package privacy implements the host's privacy-data contract: per-user export
// and erasure across the plugin's three flat tables (contact info, outbound
// email queue, registration state), all keyed by user id.
package privacy

import (
	"context"
	"fmt"
)

// Contact is a row from the contact-info table.
type Contact struct {
	UserID    int64  `json:"userid"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	TMSRef    string `json:"tmsref"`
	TimeAdded int64  `json:"timeadded"`
}

// QueuedEmail is a row from the outbound email queue.
type QueuedEmail struct {
	UserID     int64  `json:"userid"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	TimeQueued int64  `json:"timequeued"`
}

// RegistrationState is a row from the registration-state table: the synced
// baseline for one registration.
type RegistrationState struct {
	UserID          int64  `json:"userid"`
	CourseID        int64  `json:"courseid"`
	RegistrationID  string `json:"registrationid"`
	Grade           string `json:"grade,omitempty"`
	Outcome         string `json:"outcome,omitempty"`
	LastActivity    int64  `json:"lastactivity,omitempty"`
	ProgressStatus  string `json:"progressstatus,omitempty"`
	ProgressPercent string `json:"progresspercent,omitempty"`
}

// Store gives the privacy layer access to the three tables.
type Store interface {
	ContactsByUser(ctx context.Context, userID int64) ([]Contact, error)
	QueuedEmailsByUser(ctx context.Context, userID int64) ([]QueuedEmail, error)
	RegistrationsByUser(ctx context.Context, userID int64) ([]RegistrationState, error)
	// DeleteUser removes every row belonging to userID from all three tables.
	DeleteUser(ctx context.Context, userID int64) error
}

// Export is everything the plugin holds about one user.
type Export struct {
	UserID        int64               `json:"userid"`
	Contacts      []Contact           `json:"contacts"`
	QueuedEmails  []QueuedEmail       `json:"queuedemails"`
	Registrations []RegistrationState `json:"registrations"`
}

// ExportUser gathers all stored data for one user.
func ExportUser(ctx context.Context, s Store, userID int64) (*Export, error) {
	contacts, err := s.ContactsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("privacy: contacts for user %d: %w", userID, err)
	}
	emails, err := s.QueuedEmailsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("privacy: queued emails for user %d: %w", userID, err)
	}
	regs, err := s.RegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("privacy: registrations for user %d: %w", userID, err)
	}

	return &Export{
		UserID:        userID,
		Contacts:      contacts,
		QueuedEmails:  emails,
		Registrations: regs,
	}, nil
}

// EraseUser removes all stored data for one user.
func EraseUser(ctx context.Context, s Store, userID int64) error {
	if err := s.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("privacy: erase user %d: %w", userID, err)
	}
	return nil
}
