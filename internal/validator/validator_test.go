package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_CheckCollectsFailures(t *testing.T) {
	v := New()
	assert.True(t, v.Valid())

	v.Check(true, "ok_field", "should not be recorded")
	v.Check(false, "bad_field", "must be provided")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"bad_field": "must be provided"}, v.Errors)
}

func TestValidator_FirstErrorPerFieldWins(t *testing.T) {
	v := New()
	v.AddError("email", "must be provided")
	v.AddError("email", "must be a valid email address")

	assert.Equal(t, "must be provided", v.Errors["email"])
}

func TestIn(t *testing.T) {
	assert.True(t, In("PATRON", "PATRON", "ADMIN"))
	assert.False(t, In("LIBRARIAN", "PATRON", "ADMIN"))
	assert.False(t, In("PATRON"))
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("reader@library.org", EmailRX))
	assert.False(t, Matches("not an email", EmailRX))
	assert.False(t, Matches("", EmailRX))
}

func TestUnique(t *testing.T) {
	assert.True(t, Unique([]string{"a", "b", "c"}))
	assert.True(t, Unique(nil))
	assert.False(t, Unique([]string{"a", "b", "a"}))
}
