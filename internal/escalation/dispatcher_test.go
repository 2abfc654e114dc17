package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/chippagiri-sritha/naariguard-server/internal/storage/sqlite"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

type fakeContacts struct {
	contacts []*sqlite.ContactRecord
	err      error
}

func (f *fakeContacts) EmergencyContacts(_ string) ([]*sqlite.ContactRecord, error) {
	return f.contacts, f.err
}

type recordingNotifier struct {
	calls  []string
	failOn string
}

func (n *recordingNotifier) Notify(_ context.Context, contact *sqlite.ContactRecord, _ string, _ string) error {
	n.calls = append(n.calls, contact.Name)
	if contact.Name == n.failOn {
		return errors.New("delivery failed")
	}
	return nil
}

func contact(name string, priority int) *sqlite.ContactRecord {
	return &sqlite.ContactRecord{
		ID:                 "id-" + name,
		UserID:             "user-1",
		Name:               name,
		Phone:              "+91-9000000000",
		Email:              name + "@example.com",
		IsEmergencyContact: true,
		Priority:           priority,
	}
}

func TestDispatchNotifiesAllContacts(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	d := NewDispatcher(&fakeContacts{
		contacts: []*sqlite.ContactRecord{contact("priya", 1), contact("asha", 2)},
	}, notifier, logger.Nop())

	notifications, err := d.Dispatch(context.Background(), "user-1", "alert", "12.97,77.59")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifications))
	}
	for i, want := range []string{"priya", "asha"} {
		n := notifications[i]
		if n.Name != want {
			t.Errorf("notifications[%d].Name = %q, want %q", i, n.Name, want)
		}
		if !n.NotificationSent {
			t.Errorf("notifications[%d].NotificationSent = false", i)
		}
		// Receipts carry the contact's identity, not a fresh ID.
		if n.ID != "id-"+want {
			t.Errorf("notifications[%d].ID = %q, want %q", i, n.ID, "id-"+want)
		}
		if n.Timestamp.IsZero() {
			t.Errorf("notifications[%d] missing timestamp: %+v", i, n)
		}
	}
	if len(notifier.calls) != 2 {
		t.Errorf("notifier calls = %v, want 2", notifier.calls)
	}
}

func TestDispatchNoContacts(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&fakeContacts{}, &recordingNotifier{}, logger.Nop())

	_, err := d.Dispatch(context.Background(), "user-1", "alert", "")
	if !errors.Is(err, ErrNoContactsConfigured) {
		t.Errorf("Dispatch err = %v, want ErrNoContactsConfigured", err)
	}
}

func TestDispatchContinuesPastFailedDelivery(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{failOn: "priya"}
	d := NewDispatcher(&fakeContacts{
		contacts: []*sqlite.ContactRecord{contact("priya", 1), contact("asha", 2)},
	}, notifier, logger.Nop())

	notifications, err := d.Dispatch(context.Background(), "user-1", "alert", "")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifications))
	}
	if notifications[0].NotificationSent {
		t.Error("failed delivery reported as sent")
	}
	if !notifications[1].NotificationSent {
		t.Error("successful delivery reported as unsent")
	}
}

func TestDispatchSourceError(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&fakeContacts{err: errors.New("db gone")}, &recordingNotifier{}, logger.Nop())

	if _, err := d.Dispatch(context.Background(), "user-1", "alert", ""); err == nil {
		t.Error("Dispatch swallowed the source error")
	}
}
