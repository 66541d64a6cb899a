package data

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserModelMock(t *testing.T) (UserModel, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return UserModel{DB: db}, mock
}

// Deleting a referenced user fails on a foreign-key violation; the error
// must name the table that actually holds the reference.
func TestUserModel_Delete_ReferencedUser(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantErr    error
	}{
		{
			name:       "loan history",
			constraint: "loans_user_id_fkey",
			wantErr:    ErrUserHasLoans,
		},
		{
			name:       "penalty history",
			constraint: "penalties_user_id_fkey",
			wantErr:    ErrUserHasPenalties,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, mock := newUserModelMock(t)

			mock.ExpectExec("DELETE FROM users").WillReturnError(&pq.Error{
				Code:       "23503",
				Constraint: tt.constraint,
			})

			err := m.Delete(1)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserModel_Delete_NotFound(t *testing.T) {
	m, mock := newUserModelMock(t)

	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 0))

	err := m.Delete(99)

	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
