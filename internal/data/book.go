// Package data provides the data models and database interaction logic
// for the library management system.
package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/dmahoro/clms/internal/validator"
)

// Book represents a single book record stored in the database.
// It maps directly to a row in the "books" table.
type Book struct {
	ID              int64     `json:"book_id"`                  // Unique identifier assigned by the database
	Title           string    `json:"title"`                    // Title of the book
	Author          string    `json:"author"`                   // Author of the book
	ISBN            string    `json:"isbn,omitempty"`           // Optional ISBN; unique when present
	Genre           string    `json:"genre,omitempty"`          // Optional genre label
	Description     string    `json:"description,omitempty"`    // Optional short description
	PublishedYear   int       `json:"published_year,omitempty"` // Year the book was published
	TotalCopies     int       `json:"total_copies"`             // Copies the library owns
	AvailableCopies int       `json:"available_copies"`         // Copies currently on the shelf
	CreatedAt       time.Time `json:"created_at"`               // Timestamp when the record was created
	UpdatedAt       time.Time `json:"updated_at"`               // Timestamp when the record was last modified
}

// IsAvailable reports whether at least one copy is on the shelf.
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// ClaimCopy takes one copy off the shelf for a borrow.
// Returns ErrCapacityExhausted if no copies are available; the copy counts
// only ever change through ClaimCopy, ReleaseCopy, and AdjustTotal, so the
// 0 <= available <= total invariant holds by construction.
func (b *Book) ClaimCopy() error {
	if b.AvailableCopies <= 0 {
		return ErrCapacityExhausted
	}
	b.AvailableCopies--
	return nil
}

// ReleaseCopy puts one copy back on the shelf after a return.
// Returns ErrCapacityExceeded if every copy is already accounted for.
func (b *Book) ReleaseCopy() error {
	if b.AvailableCopies >= b.TotalCopies {
		return ErrCapacityExceeded
	}
	b.AvailableCopies++
	return nil
}

// AdjustTotal changes the number of copies the library owns and applies the
// same delta to the shelf count, so outstanding loans are unaffected.
// A shrink below the number of copies currently out on loan is rejected with
// ErrCapacityExceeded rather than letting the shelf count go negative.
// Callers validate newTotal >= 1 before calling.
func (b *Book) AdjustTotal(newTotal int) error {
	outstanding := b.TotalCopies - b.AvailableCopies
	if newTotal < outstanding {
		return ErrCapacityExceeded
	}
	b.AvailableCopies += newTotal - b.TotalCopies
	b.TotalCopies = newTotal
	return nil
}

// ValidateBook checks the fields of book and records any failures on v.
func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(len(book.Title) <= 255, "title", "must not be more than 255 characters long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(len(book.Author) <= 255, "author", "must not be more than 255 characters long")
	v.Check(len(book.ISBN) <= 20, "isbn", "must not be more than 20 characters long")
	v.Check(len(book.Genre) <= 100, "genre", "must not be more than 100 characters long")
	if book.PublishedYear != 0 {
		v.Check(book.PublishedYear >= 1450, "published_year", "must be after the invention of the printing press")
		v.Check(book.PublishedYear <= time.Now().Year(), "published_year", "must not be in the future")
	}
	v.Check(book.TotalCopies >= 1, "total_copies", "must be at least 1")
}

// BookModel wraps a *sql.DB connection and provides methods for
// creating, reading, updating, and deleting book records.
type BookModel struct {
	DB *sql.DB // Shared database connection pool
}

// Insert adds a new book record to the database. A new book starts with
// every copy on the shelf, so available_copies is seeded from total_copies.
// Returns ErrDuplicateISBN if the ISBN is already registered.
func (m BookModel) Insert(book *Book) error {
	query := `
        INSERT INTO books (title, author, isbn, genre, description, published_year, total_copies, available_copies)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $7)
        RETURNING book_id, available_copies, created_at, updated_at`

	err := m.DB.QueryRow(
		query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Description,
		book.PublishedYear,
		book.TotalCopies,
	).Scan(&book.ID, &book.AvailableCopies, &book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateISBN
		}
		return err
	}

	return nil
}

// Get retrieves a single book by its primary key.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT book_id, title, author, COALESCE(isbn, ''), genre, description, COALESCE(published_year, 0),
		       total_copies, available_copies, created_at, updated_at
		FROM books
		WHERE book_id = $1`

	var book Book
	err := m.DB.QueryRow(query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Genre,
		&book.Description,
		&book.PublishedYear,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}

// GetAll retrieves a paginated, sorted list of books, optionally filtered by
// a case-insensitive title search and an exact genre match.
// It uses a COUNT(*) OVER() window function so only one round-trip is needed.
func (m BookModel) GetAll(title, genre string, filters Filters) ([]*Book, Metadata, error) {
	// Build query dynamically using the validated sort column and direction.
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), book_id, title, author, COALESCE(isbn, ''), genre, description,
		       COALESCE(published_year, 0), total_copies, available_copies, created_at, updated_at
		FROM books
		WHERE ($1 = '' OR title ILIKE '%%' || $1 || '%%')
		AND ($2 = '' OR genre = $2)
		ORDER BY %s %s, book_id ASC
		LIMIT $3 OFFSET $4`, filters.sortColumn(), filters.sortDirection())

	rows, err := m.DB.Query(query, title, genre, filters.limit(), filters.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	// Always close the result set when we are done to free the database connection.
	defer rows.Close()

	totalRecords := 0
	books := []*Book{}

	for rows.Next() {
		var book Book
		err := rows.Scan(
			&totalRecords, // COUNT(*) OVER() – same value on every row
			&book.ID,
			&book.Title,
			&book.Author,
			&book.ISBN,
			&book.Genre,
			&book.Description,
			&book.PublishedYear,
			&book.TotalCopies,
			&book.AvailableCopies,
			&book.CreatedAt,
			&book.UpdatedAt,
		)
		if err != nil {
			return nil, Metadata{}, err
		}
		books = append(books, &book)
	}

	if err = rows.Err(); err != nil {
		return nil, Metadata{}, err
	}

	metadata := calculateMetadata(totalRecords, filters.Page, filters.PageSize)
	return books, metadata, nil
}

// Update saves the modified fields of book back to the database.
//
// The copy counts are never written as absolute values: the total-copies
// delta is applied to available_copies inside the UPDATE itself, against
// whatever the row holds at commit time. A borrow or return that lands
// between the caller's read and this write therefore keeps its decrement
// or increment; the caller's snapshot cannot clobber it. If the delta
// would push available_copies out of its 0..total_copies bounds the
// database check constraint rejects the row and ErrCapacityExceeded is
// returned. Returns ErrDuplicateISBN if the new ISBN collides with
// another book, and ErrRecordNotFound if the book was deleted in the
// meantime.
func (m BookModel) Update(book *Book) error {
	// Every reference to total_copies/available_copies on the right-hand
	// side reads the pre-update row, so the delta is computed against the
	// current counts, not the caller's snapshot.
	query := `
		UPDATE books
		SET title = $1, author = $2, isbn = NULLIF($3, ''), genre = $4, description = $5,
		    published_year = $6,
		    available_copies = available_copies + ($7 - total_copies),
		    total_copies = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE book_id = $8
		RETURNING total_copies, available_copies, updated_at`

	// Collect all arguments in order matching the $N placeholders above.
	args := []any{
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Description,
		book.PublishedYear,
		book.TotalCopies,
		book.ID,
	}

	// Scan the committed counts back so the caller sees what was actually
	// stored rather than its own prediction.
	err := m.DB.QueryRow(query, args...).Scan(&book.TotalCopies, &book.AvailableCopies, &book.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		case errors.As(err, &pqErr) && pqErr.Code == "23505":
			return ErrDuplicateISBN
		case errors.As(err, &pqErr) && pqErr.Code == "23514":
			return ErrCapacityExceeded
		default:
			return err
		}
	}
	return nil
}

// Delete removes the book with the given id from the database.
// A book with copies still out on loan cannot be deleted; the check and the
// delete run in one transaction with the book row locked so a concurrent
// borrow cannot slip in between them.
func (m BookModel) Delete(id int64) error {
	// Guard against obviously bad IDs before touching the database.
	if id < 1 {
		return ErrRecordNotFound
	}

	tx, err := m.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var total, available int
	err = tx.QueryRow(`
		SELECT total_copies, available_copies
		FROM books
		WHERE book_id = $1
		FOR UPDATE`, id).Scan(&total, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}

	if available < total {
		return ErrBookHasLoans
	}

	_, err = tx.Exec(`DELETE FROM books WHERE book_id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}
