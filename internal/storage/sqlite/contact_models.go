package sqlite

import "time"

// ContactRecord is a persisted trust-circle contact. Alerted is transient
// escalation state and is never written to the database; it resets to false
// whenever contacts are loaded.
type ContactRecord struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email,omitempty"`
	Relationship       string    `json:"relationship,omitempty"`
	IsEmergencyContact bool      `json:"is_emergency_contact"`
	IsSharing          bool      `json:"is_sharing"`
	Priority           int       `json:"priority"`
	Alerted            bool      `json:"is_alerted"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
