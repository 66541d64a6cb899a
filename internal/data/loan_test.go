package data

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoanModel_DueDateFor(t *testing.T) {
	borrowedAt := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		periodDays int
		want       time.Time
	}{
		{
			name:       "default_fourteen_day_period",
			periodDays: DefaultLoanPeriodDays,
			want:       time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC),
		},
		{
			name:       "short_period",
			periodDays: 3,
			want:       time.Date(2024, 1, 4, 15, 30, 0, 0, time.UTC),
		},
		{
			name:       "period_spanning_a_month_boundary",
			periodDays: 45,
			want:       time.Date(2024, 2, 15, 15, 30, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := LoanModel{LoanPeriodDays: tc.periodDays, LateFeePerDay: decimal.RequireFromString("1.00")}
			assert.True(t, m.dueDateFor(borrowedAt).Equal(tc.want))
		})
	}
}

func TestBorrowEligibility(t *testing.T) {
	tests := []struct {
		name    string
		user    *User
		book    *Book
		wantErr error
	}{
		{
			name:    "active_user_available_book",
			user:    &User{Status: UserActive},
			book:    &Book{TotalCopies: 1, AvailableCopies: 1},
			wantErr: nil,
		},
		{
			name:    "suspended_user_is_forbidden",
			user:    &User{Status: UserSuspended},
			book:    &Book{TotalCopies: 1, AvailableCopies: 1},
			wantErr: ErrUserSuspended,
		},
		{
			name:    "no_copies_on_the_shelf",
			user:    &User{Status: UserActive},
			book:    &Book{TotalCopies: 2, AvailableCopies: 0},
			wantErr: ErrBookUnavailable,
		},
		{
			// Suspension is checked before availability, matching the
			// documented precondition order.
			name:    "suspended_user_beats_unavailable_book",
			user:    &User{Status: UserSuspended},
			book:    &Book{TotalCopies: 1, AvailableCopies: 0},
			wantErr: ErrUserSuspended,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := borrowEligibility(tc.user, tc.book)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestLoan_IsActive(t *testing.T) {
	assert.True(t, (&Loan{Status: LoanBorrowed}).IsActive())
	assert.True(t, (&Loan{Status: LoanOverdue}).IsActive())
	assert.False(t, (&Loan{Status: LoanReturned}).IsActive())
}
