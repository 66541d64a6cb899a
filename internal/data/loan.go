// internal/data/loan.go
//
// The loan lifecycle lives here: borrowing, returning, and the overdue
// sweep. Borrow and return each run as a single database transaction with
// the affected book row locked, so the availability check-and-decrement can
// never race with another borrower taking the last copy.
package data

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Loan statuses. A loan is "active" while BORROWED or OVERDUE; RETURNED is
// terminal.
const (
	LoanBorrowed = "BORROWED"
	LoanReturned = "RETURNED"
	LoanOverdue  = "OVERDUE"
)

// Loan represents a single borrowing of a book by a user.
// It maps directly to a row in the "loans" table; the referenced user and
// book are looked up by id when needed, never embedded.
type Loan struct {
	ID         int64      `json:"loan_id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"` // nil until the book comes back
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsActive reports whether the loan still has the book out.
func (l *Loan) IsActive() bool {
	return l.Status == LoanBorrowed || l.Status == LoanOverdue
}

// borrowEligibility applies the business rules that gate a new borrow:
// the user must not be suspended and the book must have a copy on the shelf.
// Existence of both records is checked by the caller beforehand.
func borrowEligibility(user *User, book *Book) error {
	if user.Status == UserSuspended {
		return ErrUserSuspended
	}
	if !book.IsAvailable() {
		return ErrBookUnavailable
	}
	return nil
}

// LoanModel wraps a *sql.DB connection and carries the workflow
// configuration for the borrow/return lifecycle.
type LoanModel struct {
	DB             *sql.DB         // Shared database connection pool
	LoanPeriodDays int             // Days between borrowing and the due date
	LateFeePerDay  decimal.Decimal // Fee per whole day a return is late
}

// dueDateFor computes the due date for a loan taken out at borrowedAt.
func (m LoanModel) dueDateFor(borrowedAt time.Time) time.Time {
	return borrowedAt.AddDate(0, 0, m.LoanPeriodDays)
}

// Borrow creates a new loan of bookID to userID and takes one copy off the
// shelf, all in one transaction.
//
// Preconditions are checked in order, first failure wins: user exists, book
// exists, user not suspended, a copy is available, and no active loan for
// the same (user, book) pair. The last rule is also enforced by a partial
// unique index on the loans table, so a concurrent duplicate borrow loses
// at commit time even if it passed the explicit check.
func (m LoanModel) Borrow(userID, bookID int64) (*Loan, error) {
	if userID < 1 || bookID < 1 {
		return nil, ErrRecordNotFound
	}

	tx, err := m.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var user User
	err = tx.QueryRow(`SELECT user_id, status FROM users WHERE user_id = $1`, userID).
		Scan(&user.ID, &user.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	// FOR UPDATE serializes concurrent borrows of the same book: whoever
	// locks the row first sees the true availability, everyone after them
	// waits and re-reads the decremented count.
	var book Book
	err = tx.QueryRow(`
		SELECT book_id, total_copies, available_copies
		FROM books
		WHERE book_id = $1
		FOR UPDATE`, bookID).
		Scan(&book.ID, &book.TotalCopies, &book.AvailableCopies)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if err := borrowEligibility(&user, &book); err != nil {
		return nil, err
	}

	var exists bool
	err = tx.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1 AND book_id = $2 AND status IN ($3, $4)
		)`, userID, bookID, LoanBorrowed, LoanOverdue).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateLoan
	}

	now := time.Now().UTC()
	loan := &Loan{
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueDate:    m.dueDateFor(now),
		Status:     LoanBorrowed,
	}

	err = tx.QueryRow(`
		INSERT INTO loans (user_id, book_id, borrowed_at, due_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING loan_id, created_at, updated_at`,
		loan.UserID, loan.BookID, loan.BorrowedAt, loan.DueDate, loan.Status).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateLoan
		}
		return nil, err
	}

	if err := book.ClaimCopy(); err != nil {
		return nil, err
	}
	_, err = tx.Exec(`
		UPDATE books
		SET available_copies = $1, updated_at = CURRENT_TIMESTAMP
		WHERE book_id = $2`, book.AvailableCopies, book.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return loan, nil
}

// Return closes out the loan with the given id: it records the return time,
// puts the copy back on the shelf, and assesses a late fee if the book came
// back past its due date, all in one transaction.
//
// Both BORROWED and OVERDUE loans are returnable; OVERDUE is simply
// overwritten. Returning an already-returned loan yields ErrAlreadyReturned.
func (m LoanModel) Return(loanID int64) (*Loan, error) {
	if loanID < 1 {
		return nil, ErrRecordNotFound
	}

	tx, err := m.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var loan Loan
	var returnedAt sql.NullTime
	err = tx.QueryRow(`
		SELECT loan_id, user_id, book_id, borrowed_at, due_date, returned_at, status, created_at, updated_at
		FROM loans
		WHERE loan_id = $1
		FOR UPDATE`, loanID).
		Scan(&loan.ID, &loan.UserID, &loan.BookID, &loan.BorrowedAt, &loan.DueDate,
			&returnedAt, &loan.Status, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if loan.Status == LoanReturned {
		return nil, ErrAlreadyReturned
	}

	now := time.Now().UTC()
	loan.ReturnedAt = &now
	loan.Status = LoanReturned

	err = tx.QueryRow(`
		UPDATE loans
		SET returned_at = $1, status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE loan_id = $3
		RETURNING updated_at`, now, loan.Status, loan.ID).Scan(&loan.UpdatedAt)
	if err != nil {
		return nil, err
	}

	var book Book
	err = tx.QueryRow(`
		SELECT book_id, total_copies, available_copies
		FROM books
		WHERE book_id = $1
		FOR UPDATE`, loan.BookID).
		Scan(&book.ID, &book.TotalCopies, &book.AvailableCopies)
	if err != nil {
		return nil, err
	}

	// ErrCapacityExceeded here means a copy came back that was never taken
	// out; let it surface as a server error rather than papering over it.
	if err := book.ReleaseCopy(); err != nil {
		return nil, err
	}
	_, err = tx.Exec(`
		UPDATE books
		SET available_copies = $1, updated_at = CURRENT_TIMESTAMP
		WHERE book_id = $2`, book.AvailableCopies, book.ID)
	if err != nil {
		return nil, err
	}

	amount, daysLate := LateFee(loan.DueDate, now, m.LateFeePerDay)
	if daysLate >= 1 {
		_, err = tx.Exec(`
			INSERT INTO penalties (user_id, loan_id, amount, days_late, status)
			VALUES ($1, $2, $3, $4, $5)`,
			loan.UserID, loan.ID, amount, daysLate, PenaltyUnpaid)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkOverdue flips every BORROWED loan whose due date has passed to
// OVERDUE and reports how many loans were affected. It is idempotent:
// loans already OVERDUE or RETURNED are untouched, so re-running with the
// same or a later instant is a no-op for previously swept loans.
func (m LoanModel) MarkOverdue(now time.Time) (int64, error) {
	result, err := m.DB.Exec(`
		UPDATE loans
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND due_date < $3`,
		LoanOverdue, LoanBorrowed, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Get retrieves a single loan by its primary key.
// Returns ErrRecordNotFound if no loan with the given id exists.
func (m LoanModel) Get(id int64) (*Loan, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT loan_id, user_id, book_id, borrowed_at, due_date, returned_at, status, created_at, updated_at
		FROM loans
		WHERE loan_id = $1`

	var loan Loan
	var returnedAt sql.NullTime
	err := m.DB.QueryRow(query, id).Scan(
		&loan.ID,
		&loan.UserID,
		&loan.BookID,
		&loan.BorrowedAt,
		&loan.DueDate,
		&returnedAt,
		&loan.Status,
		&loan.CreatedAt,
		&loan.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	if returnedAt.Valid {
		loan.ReturnedAt = &returnedAt.Time
	}
	return &loan, nil
}

// GetAll retrieves every loan, newest first.
func (m LoanModel) GetAll() ([]*Loan, error) {
	query := `
		SELECT loan_id, user_id, book_id, borrowed_at, due_date, returned_at, status, created_at, updated_at
		FROM loans
		ORDER BY loan_id DESC`

	return m.queryLoans(query)
}

// GetAllForUser retrieves every loan held by the given user, newest first.
func (m LoanModel) GetAllForUser(userID int64) ([]*Loan, error) {
	query := `
		SELECT loan_id, user_id, book_id, borrowed_at, due_date, returned_at, status, created_at, updated_at
		FROM loans
		WHERE user_id = $1
		ORDER BY loan_id DESC`

	return m.queryLoans(query, userID)
}

// GetActiveForUser retrieves the user's loans that are still out
// (BORROWED or OVERDUE), newest first.
func (m LoanModel) GetActiveForUser(userID int64) ([]*Loan, error) {
	query := `
		SELECT loan_id, user_id, book_id, borrowed_at, due_date, returned_at, status, created_at, updated_at
		FROM loans
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY loan_id DESC`

	return m.queryLoans(query, userID, LoanBorrowed, LoanOverdue)
}

// GetOverdue retrieves every loan that is past due and not yet returned:
// loans already swept to OVERDUE plus BORROWED loans whose due date has
// passed but which the sweeper has not visited yet.
func (m LoanModel) GetOverdue(now time.Time) ([]*Loan, error) {
	query := `
		SELECT loan_id, user_id, book_id, borrowed_at, due_date, returned_at, status, created_at, updated_at
		FROM loans
		WHERE status = $1 OR (status = $2 AND due_date < $3)
		ORDER BY due_date ASC`

	return m.queryLoans(query, LoanOverdue, LoanBorrowed, now)
}

// queryLoans runs a multi-row loan query and scans the results.
func (m LoanModel) queryLoans(query string, args ...any) ([]*Loan, error) {
	rows, err := m.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []*Loan{}
	for rows.Next() {
		var loan Loan
		var returnedAt sql.NullTime
		err := rows.Scan(
			&loan.ID,
			&loan.UserID,
			&loan.BookID,
			&loan.BorrowedAt,
			&loan.DueDate,
			&returnedAt,
			&loan.Status,
			&loan.CreatedAt,
			&loan.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if returnedAt.Valid {
			loan.ReturnedAt = &returnedAt.Time
		}
		loans = append(loans, &loan)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return loans, nil
}
