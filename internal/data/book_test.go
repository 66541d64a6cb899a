package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmahoro/clms/internal/validator"
)

func TestBook_ClaimCopy(t *testing.T) {
	book := &Book{TotalCopies: 2, AvailableCopies: 2}

	require.NoError(t, book.ClaimCopy())
	assert.Equal(t, 1, book.AvailableCopies)

	require.NoError(t, book.ClaimCopy())
	assert.Equal(t, 0, book.AvailableCopies)

	// The last copy is gone; a further claim must fail without going negative.
	err := book.ClaimCopy()
	assert.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Equal(t, 0, book.AvailableCopies)
}

func TestBook_ReleaseCopy(t *testing.T) {
	book := &Book{TotalCopies: 1, AvailableCopies: 0}

	require.NoError(t, book.ReleaseCopy())
	assert.Equal(t, 1, book.AvailableCopies)

	err := book.ReleaseCopy()
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 1, book.AvailableCopies)
}

func TestBook_ClaimThenReleaseIsIdentity(t *testing.T) {
	book := &Book{TotalCopies: 3, AvailableCopies: 2}

	require.NoError(t, book.ClaimCopy())
	require.NoError(t, book.ReleaseCopy())

	assert.Equal(t, 2, book.AvailableCopies)
	assert.Equal(t, 3, book.TotalCopies)
}

func TestBook_AdjustTotal(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		available     int
		newTotal      int
		wantErr       error
		wantTotal     int
		wantAvailable int
	}{
		{
			name:          "grow_adds_to_the_shelf",
			total:         2,
			available:     1,
			newTotal:      5,
			wantTotal:     5,
			wantAvailable: 4,
		},
		{
			name:          "shrink_keeps_outstanding_loans_intact",
			total:         5,
			available:     4,
			newTotal:      2,
			wantTotal:     2,
			wantAvailable: 1,
		},
		{
			name:          "shrink_to_exactly_the_outstanding_count",
			total:         5,
			available:     3,
			newTotal:      2,
			wantTotal:     2,
			wantAvailable: 0,
		},
		{
			name:      "shrink_below_outstanding_is_rejected",
			total:     5,
			available: 2,
			newTotal:  1,
			wantErr:   ErrCapacityExceeded,
		},
		{
			name:          "unchanged_total_is_a_no-op",
			total:         3,
			available:     3,
			newTotal:      3,
			wantTotal:     3,
			wantAvailable: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			book := &Book{TotalCopies: tc.total, AvailableCopies: tc.available}

			err := book.AdjustTotal(tc.newTotal)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				// A rejected adjustment must leave the counts untouched.
				assert.Equal(t, tc.total, book.TotalCopies)
				assert.Equal(t, tc.available, book.AvailableCopies)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, book.TotalCopies)
			assert.Equal(t, tc.wantAvailable, book.AvailableCopies)
			assert.GreaterOrEqual(t, book.AvailableCopies, 0)
			assert.LessOrEqual(t, book.AvailableCopies, book.TotalCopies)
		})
	}
}

func TestValidateBook(t *testing.T) {
	valid := func() *Book {
		return &Book{
			Title:         "The Dispossessed",
			Author:        "Ursula K. Le Guin",
			ISBN:          "9780060512750",
			Genre:         "Science Fiction",
			PublishedYear: 1974,
			TotalCopies:   3,
		}
	}

	t.Run("valid_book_passes", func(t *testing.T) {
		v := validator.New()
		ValidateBook(v, valid())
		assert.True(t, v.Valid())
	})

	tests := []struct {
		name      string
		mutate    func(*Book)
		wantField string
	}{
		{
			name:      "missing_title",
			mutate:    func(b *Book) { b.Title = "" },
			wantField: "title",
		},
		{
			name:      "missing_author",
			mutate:    func(b *Book) { b.Author = "" },
			wantField: "author",
		},
		{
			name:      "isbn_too_long",
			mutate:    func(b *Book) { b.ISBN = "978006051275097800605" },
			wantField: "isbn",
		},
		{
			name:      "zero_total_copies",
			mutate:    func(b *Book) { b.TotalCopies = 0 },
			wantField: "total_copies",
		},
		{
			name:      "published_year_in_the_future",
			mutate:    func(b *Book) { b.PublishedYear = 3000 },
			wantField: "published_year",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			book := valid()
			tc.mutate(book)

			v := validator.New()
			ValidateBook(v, book)

			assert.False(t, v.Valid())
			assert.Contains(t, v.Errors, tc.wantField)
		})
	}
}
