package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	app := &applicationDependencies{}
	w := httptest.NewRecorder()

	err := app.writeJSON(w, http.StatusCreated, envelope{"message": "done"}, http.Header{
		"X-Request-Id": []string{"abc123"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "abc123", w.Header().Get("X-Request-Id"))
	assert.Contains(t, w.Body.String(), `"message": "done"`)
	assert.True(t, strings.HasSuffix(w.Body.String(), "\n"))
}

func TestReadJSON(t *testing.T) {
	type input struct {
		UserID int64 `json:"user_id"`
		BookID int64 `json:"book_id"`
	}

	app := &applicationDependencies{}

	t.Run("valid_body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/loans", strings.NewReader(`{"user_id": 1, "book_id": 2}`))
		w := httptest.NewRecorder()

		var dst input
		require.NoError(t, app.readJSON(w, r, &dst))
		assert.Equal(t, int64(1), dst.UserID)
		assert.Equal(t, int64(2), dst.BookID)
	})

	t.Run("unknown_field_is_rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/loans", strings.NewReader(`{"user_id": 1, "surprise": true}`))
		w := httptest.NewRecorder()

		var dst input
		assert.Error(t, app.readJSON(w, r, &dst))
	})

	t.Run("trailing_json_value_is_rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/loans", strings.NewReader(`{"user_id": 1}{"book_id": 2}`))
		w := httptest.NewRecorder()

		var dst input
		assert.Error(t, app.readJSON(w, r, &dst))
	})
}

func TestReadString(t *testing.T) {
	app := &applicationDependencies{}
	qs := url.Values{"genre": []string{"Mystery"}}

	assert.Equal(t, "Mystery", app.readString(qs, "genre", "fallback"))
	assert.Equal(t, "fallback", app.readString(qs, "missing", "fallback"))
}

func TestReadBool(t *testing.T) {
	app := &applicationDependencies{}
	qs := url.Values{"overdue": []string{"true"}, "bad": []string{"maybe"}}

	assert.True(t, app.readBool(qs, "overdue", false))
	assert.False(t, app.readBool(qs, "missing", false))
	assert.True(t, app.readBool(qs, "missing", true))
	assert.False(t, app.readBool(qs, "bad", false))
}

func TestReadInt(t *testing.T) {
	app := &applicationDependencies{}
	qs := url.Values{"page": []string{"3"}, "bad": []string{"not-a-number"}}

	assert.Equal(t, 3, app.readInt(qs, "page", 1))
	assert.Equal(t, 1, app.readInt(qs, "missing", 1))
	assert.Equal(t, 1, app.readInt(qs, "bad", 1))
}
