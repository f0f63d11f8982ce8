package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/intakelabs/waintake/internal/domain"
	"github.com/intakelabs/waintake/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS admin_accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		admin_tier TEXT NOT NULL DEFAULT 'client_admin',
		status TEXT NOT NULL DEFAULT 'active',
		parent_admin_id INTEGER REFERENCES admin_accounts(id),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_admin_status ON admin_accounts(status);

	CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phone TEXT NOT NULL UNIQUE,
		name TEXT,
		email TEXT,
		assigned_admin_id INTEGER NOT NULL REFERENCES admin_accounts(id),
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		contact_id INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		admin_id INTEGER NOT NULL REFERENCES admin_accounts(id),
		message_text TEXT NOT NULL DEFAULT '',
		direction TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'sent',
		metadata TEXT,
		media_mime_type TEXT,
		media_filename TEXT,
		media_data BLOB,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_contact ON messages(contact_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetActiveAdminByPhone returns the active admin matching the phone exactly.
func (s *SQLiteStore) GetActiveAdminByPhone(ctx context.Context, phone string) (*domain.AdminAccount, error) {
	query := `
		SELECT id, name, phone, admin_tier, status, parent_admin_id, created_at, updated_at
		FROM admin_accounts WHERE phone = ? AND status = 'active' LIMIT 1`

	admin, err := scanAdmin(s.db.QueryRowContext(ctx, query, phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan admin row: %w", err)
	}
	return admin, nil
}

// ListActiveAdmins returns every active admin account.
func (s *SQLiteStore) ListActiveAdmins(ctx context.Context) ([]domain.AdminAccount, error) {
	query := `
		SELECT id, name, phone, admin_tier, status, parent_admin_id, created_at, updated_at
		FROM admin_accounts WHERE status = 'active' ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.AdminAccount
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin row: %w", err)
		}
		admins = append(admins, *admin)
	}
	return admins, rows.Err()
}

// CreateAdminAccount inserts a new admin account and fills its ID.
func (s *SQLiteStore) CreateAdminAccount(ctx context.Context, admin *domain.AdminAccount) error {
	query := `
	INSERT INTO admin_accounts (name, phone, admin_tier, status, parent_admin_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	if admin.UpdatedAt.IsZero() {
		admin.UpdatedAt = now
	}

	var parent interface{}
	if admin.ParentAdminID != nil {
		parent = *admin.ParentAdminID
	}

	res, err := s.db.ExecContext(ctx, query,
		admin.Name, admin.Phone, string(admin.Tier), string(admin.Status),
		parent, admin.CreatedAt.Unix(), admin.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert admin account: %w", err)
	}
	admin.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read admin id: %w", err)
	}
	return nil
}

// GetContactByPhone returns the contact with the given phone, or nil.
func (s *SQLiteStore) GetContactByPhone(ctx context.Context, phone string) (*domain.Contact, error) {
	query := `
		SELECT id, phone, name, email, assigned_admin_id, created_at, updated_at
		FROM contacts WHERE phone = ? LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, phone)

	var contact domain.Contact
	var name, email sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&contact.ID, &contact.Phone, &name, &email,
		&contact.AssignedAdminID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan contact row: %w", err)
	}

	contact.Name = name.String
	contact.Email = email.String
	contact.CreatedAt = time.Unix(createdAt, 0)
	contact.UpdatedAt = time.Unix(updatedAt, 0)
	return &contact, nil
}

// CreateContact inserts a new contact and fills its ID.
func (s *SQLiteStore) CreateContact(ctx context.Context, contact *domain.Contact) error {
	query := `
	INSERT INTO contacts (phone, name, email, assigned_admin_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	if contact.UpdatedAt.IsZero() {
		contact.UpdatedAt = now
	}

	res, err := s.db.ExecContext(ctx, query,
		contact.Phone, nullable(contact.Name), nullable(contact.Email),
		contact.AssignedAdminID, contact.CreatedAt.Unix(), contact.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	contact.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read contact id: %w", err)
	}
	return nil
}

// UpdateContactAdmin reassigns a contact to another admin.
func (s *SQLiteStore) UpdateContactAdmin(ctx context.Context, contactID, adminID int64) error {
	return s.updateContactColumn(ctx, contactID, "assigned_admin_id", adminID)
}

// UpdateContactName persists a captured display name.
func (s *SQLiteStore) UpdateContactName(ctx context.Context, contactID int64, name string) error {
	return s.updateContactColumn(ctx, contactID, "name", name)
}

// UpdateContactEmail persists a captured email address.
func (s *SQLiteStore) UpdateContactEmail(ctx context.Context, contactID int64, email string) error {
	return s.updateContactColumn(ctx, contactID, "email", email)
}

func (s *SQLiteStore) updateContactColumn(ctx context.Context, contactID int64, column string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE contacts SET %s = ?, updated_at = ? WHERE id = ?`, column)
	if _, err := s.db.ExecContext(ctx, query, value, time.Now().Unix(), contactID); err != nil {
		return fmt.Errorf("update contact %s: %w", column, err)
	}
	return nil
}

// ListContacts returns all contacts, most recently created first.
func (s *SQLiteStore) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	query := `
		SELECT id, phone, name, email, assigned_admin_id, created_at, updated_at
		FROM contacts ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var contact domain.Contact
		var name, email sql.NullString
		var createdAt, updatedAt int64
		if err := rows.Scan(&contact.ID, &contact.Phone, &name, &email,
			&contact.AssignedAdminID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contact.Name = name.String
		contact.Email = email.String
		contact.CreatedAt = time.Unix(createdAt, 0)
		contact.UpdatedAt = time.Unix(updatedAt, 0)
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// InsertMessage appends one message record. Busy errors are retried once;
// everything else propagates to the caller.
func (s *SQLiteStore) InsertMessage(ctx context.Context, rec *domain.MessageRecord) error {
	query := `
	INSERT INTO messages (contact_id, admin_id, message_text, direction, status,
		metadata, media_mime_type, media_filename, media_data, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var metadata interface{}
	if len(rec.Metadata) > 0 {
		metadata = string(rec.Metadata)
	}
	var mime, filename, data interface{}
	if rec.Media != nil {
		mime = rec.Media.MimeType
		if rec.Media.Filename != "" {
			filename = rec.Media.Filename
		}
		data = rec.Media.Data
	}

	args := []interface{}{
		rec.ContactID, rec.AdminID, rec.Text, string(rec.Direction), string(rec.Status),
		metadata, mime, filename, data, rec.CreatedAt.Unix(),
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if shared.IsSQLiteConflictError(err) {
		res, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read message id: %w", err)
	}
	return nil
}

// ListMessagesByContact returns a contact's messages in creation order.
func (s *SQLiteStore) ListMessagesByContact(ctx context.Context, contactID int64) ([]domain.MessageRecord, error) {
	query := `
		SELECT id, contact_id, admin_id, message_text, direction, status,
		       metadata, media_mime_type, media_filename, media_data, created_at
		FROM messages WHERE contact_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, contactID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var records []domain.MessageRecord
	for rows.Next() {
		var rec domain.MessageRecord
		var direction, status string
		var metadata, mime, filename sql.NullString
		var data []byte
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.ContactID, &rec.AdminID, &rec.Text,
			&direction, &status, &metadata, &mime, &filename, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		rec.Direction = domain.Direction(direction)
		rec.Status = domain.DeliveryStatus(status)
		if metadata.Valid {
			rec.Metadata = []byte(metadata.String)
		}
		if mime.Valid || len(data) > 0 {
			rec.Media = &domain.Media{MimeType: mime.String, Filename: filename.String, Data: data}
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAdmin(row rowScanner) (*domain.AdminAccount, error) {
	var admin domain.AdminAccount
	var tier, status string
	var parent sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&admin.ID, &admin.Name, &admin.Phone, &tier, &status,
		&parent, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	admin.Tier = domain.AdminTier(tier)
	admin.Status = domain.AdminStatus(status)
	if parent.Valid {
		admin.ParentAdminID = &parent.Int64
	}
	admin.CreatedAt = time.Unix(createdAt, 0)
	admin.UpdatedAt = time.Unix(updatedAt, 0)
	return &admin, nil
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
