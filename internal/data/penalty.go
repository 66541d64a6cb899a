// internal/data/penalty.go
package data

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Penalty statuses. UNPAID is the only status a penalty is ever created
// with; the single allowed transition is UNPAID -> WAIVED and there is no
// way back.
const (
	PenaltyUnpaid = "UNPAID"
	PenaltyWaived = "WAIVED"
)

// Penalty represents a late-return fee assessed against a user.
// At most one penalty exists per loan, created when the loan is returned
// late; apart from waiving, a penalty is immutable.
type Penalty struct {
	ID        int64           `json:"penalty_id"`
	UserID    int64           `json:"user_id"`
	LoanID    int64           `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`    // Exact decimal, never floating point
	DaysLate  int             `json:"days_late"` // Always >= 1
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PenaltyModel wraps a *sql.DB connection and provides the penalty ledger:
// lookups, per-user listings, unpaid totals, and waiving.
type PenaltyModel struct {
	DB *sql.DB // Shared database connection pool
}

// Get retrieves a single penalty by its primary key.
// Returns ErrRecordNotFound if no penalty with the given id exists.
func (m PenaltyModel) Get(id int64) (*Penalty, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT penalty_id, user_id, loan_id, amount, days_late, status, created_at, updated_at
		FROM penalties
		WHERE penalty_id = $1`

	var penalty Penalty
	err := m.DB.QueryRow(query, id).Scan(
		&penalty.ID,
		&penalty.UserID,
		&penalty.LoanID,
		&penalty.Amount,
		&penalty.DaysLate,
		&penalty.Status,
		&penalty.CreatedAt,
		&penalty.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &penalty, nil
}

// GetAll retrieves every penalty, newest first.
func (m PenaltyModel) GetAll() ([]*Penalty, error) {
	query := `
		SELECT penalty_id, user_id, loan_id, amount, days_late, status, created_at, updated_at
		FROM penalties
		ORDER BY penalty_id DESC`

	return m.queryPenalties(query)
}

// GetAllForUser retrieves every penalty assessed against the given user,
// newest first.
func (m PenaltyModel) GetAllForUser(userID int64) ([]*Penalty, error) {
	query := `
		SELECT penalty_id, user_id, loan_id, amount, days_late, status, created_at, updated_at
		FROM penalties
		WHERE user_id = $1
		ORDER BY penalty_id DESC`

	return m.queryPenalties(query, userID)
}

// GetUnpaidForUser retrieves the user's penalties that are still UNPAID.
func (m PenaltyModel) GetUnpaidForUser(userID int64) ([]*Penalty, error) {
	query := `
		SELECT penalty_id, user_id, loan_id, amount, days_late, status, created_at, updated_at
		FROM penalties
		WHERE user_id = $1 AND status = $2
		ORDER BY penalty_id DESC`

	return m.queryPenalties(query, userID, PenaltyUnpaid)
}

// TotalUnpaidForUser sums the amounts of the user's UNPAID penalties.
// A user with no unpaid penalties owes exactly zero, not "nothing found".
func (m PenaltyModel) TotalUnpaidForUser(userID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM penalties
		WHERE user_id = $1 AND status = $2`

	var total decimal.Decimal
	err := m.DB.QueryRow(query, userID, PenaltyUnpaid).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Waive marks the penalty with the given id as WAIVED and returns it.
// Waiving an already-waived penalty is a no-op, not an error, so the
// operation is idempotent. Returns ErrRecordNotFound if the penalty does
// not exist.
func (m PenaltyModel) Waive(id int64) (*Penalty, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		UPDATE penalties
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE penalty_id = $2
		RETURNING penalty_id, user_id, loan_id, amount, days_late, status, created_at, updated_at`

	var penalty Penalty
	err := m.DB.QueryRow(query, PenaltyWaived, id).Scan(
		&penalty.ID,
		&penalty.UserID,
		&penalty.LoanID,
		&penalty.Amount,
		&penalty.DaysLate,
		&penalty.Status,
		&penalty.CreatedAt,
		&penalty.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &penalty, nil
}

// queryPenalties runs a multi-row penalty query and scans the results.
func (m PenaltyModel) queryPenalties(query string, args ...any) ([]*Penalty, error) {
	rows, err := m.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	penalties := []*Penalty{}
	for rows.Next() {
		var penalty Penalty
		err := rows.Scan(
			&penalty.ID,
			&penalty.UserID,
			&penalty.LoanID,
			&penalty.Amount,
			&penalty.DaysLate,
			&penalty.Status,
			&penalty.CreatedAt,
			&penalty.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		penalties = append(penalties, &penalty)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return penalties, nil
}
