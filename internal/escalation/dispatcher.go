package escalation

import (
	"context"
	"errors"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/internal/storage/sqlite"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// ErrNoContactsConfigured indicates the user has no emergency contacts
// to notify. Callers treat this as a non-fatal outcome.
var ErrNoContactsConfigured = errors.New("no emergency contacts found")

// Notification is the delivery receipt for one contact.
type Notification struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	NotificationSent bool      `json:"notificationSent"`
	Timestamp        time.Time `json:"timestamp"`
}

// ContactSource supplies the emergency contacts for a user.
type ContactSource interface {
	EmergencyContacts(userID string) ([]*sqlite.ContactRecord, error)
}

// Notifier delivers one alert to one contact.
type Notifier interface {
	Notify(ctx context.Context, contact *sqlite.ContactRecord, message string, location string) error
}

// Dispatcher fans an alert out to a user's emergency contacts in
// priority order.
type Dispatcher struct {
	contacts ContactSource
	notifier Notifier
	logger   *logger.Logger
}

// NewDispatcher creates an escalation dispatcher.
func NewDispatcher(contacts ContactSource, notifier Notifier, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		contacts: contacts,
		notifier: notifier,
		logger:   logger.Named("escalation"),
	}
}

// Dispatch notifies every emergency contact of the user. A contact
// that fails to receive the alert is reported with NotificationSent
// false rather than aborting the remaining deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, message string, location string) ([]Notification, error) {
	contacts, err := d.contacts.EmergencyContacts(userID)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, ErrNoContactsConfigured
	}

	notifications := make([]Notification, 0, len(contacts))
	for _, contact := range contacts {
		sent := true
		if err := d.notifier.Notify(ctx, contact, message, location); err != nil {
			sent = false
			d.logger.Warn("Failed to notify contact",
				logger.String("contact_id", contact.ID),
				logger.String("name", contact.Name),
				logger.Error(err))
		}
		notifications = append(notifications, Notification{
			ID:               contact.ID,
			Name:             contact.Name,
			Phone:            contact.Phone,
			Email:            contact.Email,
			NotificationSent: sent,
			Timestamp:        time.Now().UTC(),
		})
	}

	d.logger.Info("Dispatched emergency alert",
		logger.String("user_id", userID),
		logger.Int("contacts", len(notifications)))

	return notifications, nil
}

// LogNotifier records each alert instead of delivering it over an
// external channel. It stands in until an SMS or push provider is
// wired up.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a notifier that logs deliveries.
func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notifier")}
}

// Notify logs the alert for the contact.
func (n *LogNotifier) Notify(_ context.Context, contact *sqlite.ContactRecord, message string, location string) error {
	n.logger.Info("Emergency notification",
		logger.String("name", contact.Name),
		logger.String("phone", contact.Phone),
		logger.String("message", message),
		logger.String("location", location))
	return nil
}
