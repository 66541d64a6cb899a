package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmahoro/clms/internal/validator"
)

func TestPassword_SetAndMatches(t *testing.T) {
	var p password
	require.NoError(t, p.Set("correct horse battery staple"))
	require.NotNil(t, p.hash)

	match, err := p.Matches("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = p.Matches("wrong password")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestValidateUser(t *testing.T) {
	valid := func() *User {
		u := &User{
			FullName: "Amara Okonkwo",
			Email:    "amara@example.com",
			Phone:    "555-0142",
			Role:     RolePatron,
			Status:   UserActive,
		}
		if err := u.Password.Set("a sensible password"); err != nil {
			t.Fatal(err)
		}
		return u
	}

	t.Run("valid_user_passes", func(t *testing.T) {
		v := validator.New()
		ValidateUser(v, valid())
		assert.True(t, v.Valid())
	})

	tests := []struct {
		name      string
		mutate    func(*User)
		wantField string
	}{
		{
			name:      "missing_full_name",
			mutate:    func(u *User) { u.FullName = "" },
			wantField: "full_name",
		},
		{
			name:      "malformed_email",
			mutate:    func(u *User) { u.Email = "not-an-email" },
			wantField: "email",
		},
		{
			name:      "unknown_role",
			mutate:    func(u *User) { u.Role = "LIBRARIAN" },
			wantField: "role",
		},
		{
			name: "password_too_short",
			mutate: func(u *User) {
				if err := u.Password.Set("short"); err != nil {
					t.Fatal(err)
				}
			},
			wantField: "password",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user := valid()
			tc.mutate(user)

			v := validator.New()
			ValidateUser(v, user)

			assert.False(t, v.Valid())
			assert.Contains(t, v.Errors, tc.wantField)
		})
	}
}

func TestValidateUser_PanicsWithoutHash(t *testing.T) {
	user := &User{
		FullName: "Amara Okonkwo",
		Email:    "amara@example.com",
		Role:     RolePatron,
	}

	assert.Panics(t, func() {
		ValidateUser(validator.New(), user)
	})
}
