// internal/data/user.go
package data

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmahoro/clms/internal/validator"
)

// User roles. PATRON is the default for newly registered accounts.
const (
	RolePatron = "PATRON"
	RoleAdmin  = "ADMIN"
)

// User account statuses. A SUSPENDED user cannot start new borrows, but
// loans they already hold stay active until returned.
const (
	UserActive    = "ACTIVE"
	UserSuspended = "SUSPENDED"
)

// User represents a library member record stored in the database.
type User struct {
	ID        int64     `json:"user_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Password  password  `json:"-"` // Never serialized
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// password holds both the plaintext (only while a request is in flight) and
// the bcrypt hash that is actually persisted.
type password struct {
	plaintext *string
	hash      []byte
}

// Set computes the bcrypt hash of plaintext and stores both on p.
func (p *password) Set(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	p.plaintext = &plaintext
	p.hash = hash
	return nil
}

// Matches reports whether plaintext matches the stored hash.
func (p *password) Matches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintext))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

// ValidateUser checks the fields of user and records any failures on v.
// A nil plaintext password means the user was loaded from the database and
// the credential is not being changed, so it is skipped.
func ValidateUser(v *validator.Validator, user *User) {
	v.Check(user.FullName != "", "full_name", "must be provided")
	v.Check(len(user.FullName) <= 255, "full_name", "must not be more than 255 characters long")
	v.Check(user.Email != "", "email", "must be provided")
	v.Check(validator.Matches(user.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(len(user.Phone) <= 20, "phone", "must not be more than 20 characters long")
	v.Check(validator.In(user.Role, RolePatron, RoleAdmin), "role", "must be PATRON or ADMIN")

	if user.Password.plaintext != nil {
		v.Check(len(*user.Password.plaintext) >= 8, "password", "must be at least 8 characters long")
		v.Check(len(*user.Password.plaintext) <= 72, "password", "must not be more than 72 characters long")
	}

	// A missing hash at this point is a logic error in the calling code, not
	// a client-side validation failure.
	if user.Password.hash == nil {
		panic("missing password hash for user")
	}
}

// UserModel wraps a *sql.DB connection and provides methods for
// managing user records.
type UserModel struct {
	DB *sql.DB // Shared database connection pool
}

// Insert adds a new user record with ACTIVE status.
// Returns ErrDuplicateEmail if the email address is already registered.
func (m UserModel) Insert(user *User) error {
	query := `
        INSERT INTO users (full_name, email, phone, password_hash, role, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING user_id, created_at, updated_at`

	args := []any{user.FullName, user.Email, user.Phone, user.Password.hash, user.Role, user.Status}

	err := m.DB.QueryRow(query, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Get retrieves a single user by its primary key.
// Returns ErrRecordNotFound if no user with the given id exists.
func (m UserModel) Get(id int64) (*User, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT user_id, full_name, email, phone, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE user_id = $1`

	return m.scanUser(m.DB.QueryRow(query, id))
}

// GetByEmail retrieves a single user by email address.
// Returns ErrRecordNotFound if no user with the given email exists.
func (m UserModel) GetByEmail(email string) (*User, error) {
	query := `
		SELECT user_id, full_name, email, phone, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE email = $1`

	return m.scanUser(m.DB.QueryRow(query, email))
}

// scanUser scans a single user row, mapping sql.ErrNoRows to ErrRecordNotFound.
func (m UserModel) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Phone,
		&user.Password.hash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}

// GetAll retrieves every user, optionally filtered to a single role.
func (m UserModel) GetAll(role string) ([]*User, error) {
	query := `
		SELECT user_id, full_name, email, phone, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY user_id ASC`

	rows, err := m.DB.Query(query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID,
			&user.FullName,
			&user.Email,
			&user.Phone,
			&user.Password.hash,
			&user.Role,
			&user.Status,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// SetStatus moves a user to the given status (ACTIVE or SUSPENDED).
// Suspending an already-suspended user is a no-op, not an error.
// Returns the updated user, or ErrRecordNotFound.
func (m UserModel) SetStatus(id int64, status string) (*User, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		UPDATE users
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2
		RETURNING user_id, full_name, email, phone, password_hash, role, status, created_at, updated_at`

	return m.scanUser(m.DB.QueryRow(query, status, id))
}

// Delete removes the user with the given id from the database.
// Returns ErrRecordNotFound if no matching record exists. Loan and penalty
// history is never orphan-removed, so a referenced user cannot be deleted:
// the foreign-key violation is mapped to ErrUserHasLoans or
// ErrUserHasPenalties depending on which table still points at the user.
func (m UserModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result, err := m.DB.Exec(`DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			if strings.HasPrefix(pqErr.Constraint, "penalties") {
				return ErrUserHasPenalties
			}
			return ErrUserHasLoans
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
