// internal/data/models.go
package data

import (
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Models is a top-level container that groups all database model types together.
// It is passed around the application via applicationDependencies so every handler
// has access to the database without importing sql directly.
type Models struct {
	Books     BookModel    // Handles all database operations for the books table
	Users     UserModel    // Handles all database operations for the users table
	Loans     LoanModel    // Borrow/return workflow plus loan queries
	Penalties PenaltyModel // Penalty ledger: reads, totals, and waiving
}

// NewModels constructs a Models value wired up to the given database connection pool.
// loanPeriodDays and lateFeePerDay are the workflow tuning knobs parsed from flags;
// they live on LoanModel so the borrow/return code never reaches back into config.
func NewModels(db *sql.DB, loanPeriodDays int, lateFeePerDay decimal.Decimal) Models {
	return Models{
		Books:     BookModel{DB: db},
		Users:     UserModel{DB: db},
		Loans:     LoanModel{DB: db, LoanPeriodDays: loanPeriodDays, LateFeePerDay: lateFeePerDay},
		Penalties: PenaltyModel{DB: db},
	}
}

// ErrRecordNotFound is returned when a query finds no matching row.
var ErrRecordNotFound = errors.New("record not found")

// Business-rule errors surfaced by the loan workflow. None of these are
// transient: each one means the request itself must change, so callers map
// them straight to a client-facing response and never retry.
var (
	ErrUserSuspended    = errors.New("user account is suspended")
	ErrBookUnavailable  = errors.New("book is not available for borrowing")
	ErrDuplicateLoan    = errors.New("user already has an active loan for this book")
	ErrAlreadyReturned  = errors.New("loan is already returned")
	ErrDuplicateEmail   = errors.New("email address is already in use")
	ErrDuplicateISBN    = errors.New("a book with this ISBN already exists")
	ErrBookHasLoans     = errors.New("book has copies out on loan")
	ErrUserHasLoans     = errors.New("user has loans on record")
	ErrUserHasPenalties = errors.New("user has penalties on record")
)

// Copy-count invariant errors. Under correct transaction isolation these
// never fire; if one does it means a caller bypassed the tracker methods or
// a lost update slipped through, so handlers treat them as server errors.
var (
	ErrCapacityExhausted = errors.New("no copies available")
	ErrCapacityExceeded  = errors.New("all copies already accounted for")
)

// Filters holds pagination and sorting parameters extracted from URL query strings.
type Filters struct {
	Page         int      // Current page number (1-indexed)
	PageSize     int      // Number of records per page
	Sort         string   // Column name to sort by (prefix with "-" for DESC)
	SortSafeList []string // Allowed sort columns to prevent SQL injection
}

// sortColumn returns the validated column name for ORDER BY, defaulting to book_id.
func (f Filters) sortColumn() string {
	for _, safe := range f.SortSafeList {
		if f.Sort == safe {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	return "book_id" // safe fallback
}

// sortDirection returns "ASC" or "DESC" based on the Sort prefix.
func (f Filters) sortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return "DESC"
	}
	return "ASC"
}

// limit returns the SQL LIMIT value derived from PageSize.
func (f Filters) limit() int { return f.PageSize }

// offset returns the SQL OFFSET value derived from Page and PageSize.
func (f Filters) offset() int { return (f.Page - 1) * f.PageSize }

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// calculateMetadata computes page metadata from total record count and filter values.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
