package data

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookModelMock(t *testing.T) (BookModel, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return BookModel{DB: db}, mock
}

func TestBookModel_Update_ReturnsCommittedCounts(t *testing.T) {
	m, mock := newBookModelMock(t)

	// The caller read the book when 3 of 3 copies were on the shelf and
	// raised the total to 5. A borrow landed in between, so the database
	// applies the +2 delta to the decremented count and hands back 4, not
	// the caller's predicted 5.
	book := &Book{
		ID:              1,
		Title:           "The Go Programming Language",
		Author:          "Donovan & Kernighan",
		TotalCopies:     5,
		AvailableCopies: 5,
	}

	updatedAt := time.Now().UTC()
	mock.ExpectQuery("UPDATE books").WillReturnRows(
		sqlmock.NewRows([]string{"total_copies", "available_copies", "updated_at"}).
			AddRow(5, 4, updatedAt),
	)

	err := m.Update(book)

	require.NoError(t, err)
	assert.Equal(t, 5, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies)
	assert.Equal(t, updatedAt, book.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookModel_Update_ShrinkBelowOutstanding(t *testing.T) {
	m, mock := newBookModelMock(t)

	// Shrinking total_copies below the number of copies out on loan drives
	// available_copies negative, which the row's check constraint rejects.
	book := &Book{
		ID:          1,
		Title:       "The Go Programming Language",
		Author:      "Donovan & Kernighan",
		TotalCopies: 1,
	}

	mock.ExpectQuery("UPDATE books").WillReturnError(&pq.Error{
		Code:       "23514",
		Constraint: "books_available_copies_check",
	})

	err := m.Update(book)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookModel_Update_DuplicateISBN(t *testing.T) {
	m, mock := newBookModelMock(t)

	book := &Book{ID: 1, Title: "A", Author: "B", ISBN: "9780134190440", TotalCopies: 1}

	mock.ExpectQuery("UPDATE books").WillReturnError(&pq.Error{
		Code:       "23505",
		Constraint: "books_isbn_key",
	})

	err := m.Update(book)

	assert.ErrorIs(t, err, ErrDuplicateISBN)
	assert.NoError(t, mock.ExpectationsWereMet())
}
