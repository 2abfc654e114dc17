package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// ContactStorage handles storage of trust-circle contacts
type ContactStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewContactStorage creates a new SQLite contact storage
func NewContactStorage(db *sql.DB, logger *logger.Logger) (*ContactStorage, error) {
	storage := &ContactStorage{
		db:     db,
		logger: logger.Named("sqlite-contacts"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize contact storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *ContactStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trust_circle_contacts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT,
			relationship TEXT,
			is_emergency_contact INTEGER NOT NULL DEFAULT 0,
			is_sharing INTEGER NOT NULL DEFAULT 0,
			priority INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trust_circle_contacts table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON trust_circle_contacts(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_priority ON trust_circle_contacts(priority)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_emergency ON trust_circle_contacts(user_id, is_emergency_contact)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create contact index: %w", err)
		}
	}

	return nil
}

// Store inserts a contact
func (s *ContactStorage) Store(record *ContactRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO trust_circle_contacts
		(id, user_id, name, phone, email, relationship, is_emergency_contact, is_sharing, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Name,
		record.Phone,
		nullableString(record.Email),
		nullableString(record.Relationship),
		boolToInt(record.IsEmergencyContact),
		boolToInt(record.IsSharing),
		record.Priority,
		record.CreatedAt.Format(time.RFC3339),
		record.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a contact. The transient Alerted
// flag is deliberately not persisted.
func (s *ContactStorage) Update(record *ContactRecord) error {
	result, err := s.db.Exec(
		`UPDATE trust_circle_contacts
		SET name = ?, phone = ?, email = ?, relationship = ?, is_emergency_contact = ?, is_sharing = ?, priority = ?, updated_at = ?
		WHERE id = ?`,
		record.Name,
		record.Phone,
		nullableString(record.Email),
		nullableString(record.Relationship),
		boolToInt(record.IsEmergencyContact),
		boolToInt(record.IsSharing),
		record.Priority,
		time.Now().UTC().Format(time.RFC3339),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("contact %s: %w", record.ID, sql.ErrNoRows)
	}
	return nil
}

// Delete removes a contact
func (s *ContactStorage) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM trust_circle_contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// GetByID returns a single contact by ID
func (s *ContactStorage) GetByID(id string) (*ContactRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, phone, email, relationship, is_emergency_contact, is_sharing, priority, created_at, updated_at
		FROM trust_circle_contacts
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact by id: %w", err)
	}
	defer rows.Close()

	records, err := s.scanContactRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("contact %s: %w", id, sql.ErrNoRows)
	}
	return records[0], nil
}

// ListByOwner returns all contacts for a user, ordered by ascending priority
func (s *ContactStorage) ListByOwner(userID string) ([]*ContactRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, phone, email, relationship, is_emergency_contact, is_sharing, priority, created_at, updated_at
		FROM trust_circle_contacts
		WHERE user_id = ?
		ORDER BY priority ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts by owner: %w", err)
	}
	defer rows.Close()

	return s.scanContactRows(rows)
}

// EmergencyContacts returns the user's designated emergency contacts,
// ordered by ascending priority
func (s *ContactStorage) EmergencyContacts(userID string) ([]*ContactRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, phone, email, relationship, is_emergency_contact, is_sharing, priority, created_at, updated_at
		FROM trust_circle_contacts
		WHERE user_id = ? AND is_emergency_contact = 1
		ORDER BY priority ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query emergency contacts: %w", err)
	}
	defer rows.Close()

	return s.scanContactRows(rows)
}

// scanContactRows scans database rows into ContactRecord structs
func (s *ContactStorage) scanContactRows(rows *sql.Rows) ([]*ContactRecord, error) {
	var records []*ContactRecord
	for rows.Next() {
		var record ContactRecord
		var email, relationship sql.NullString
		var isEmergency, isSharing int
		var createdAt, updatedAt string

		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Name,
			&record.Phone,
			&email,
			&relationship,
			&isEmergency,
			&isSharing,
			&record.Priority,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}

		if email.Valid {
			record.Email = email.String
		}
		if relationship.Valid {
			record.Relationship = relationship.String
		}
		record.IsEmergencyContact = isEmergency != 0
		record.IsSharing = isSharing != 0

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// nullableString converts empty strings to NULL for optional columns
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
