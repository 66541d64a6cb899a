// cmd/api/books.go
// This file contains all HTTP request handlers for the book catalog.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and database models.
package main

import (
	"errors"
	"net/http"

	"github.com/dmahoro/clms/internal/data"
	"github.com/dmahoro/clms/internal/validator"
)

// createBookHandler handles POST /v1/books.
// It reads a JSON body containing the new book's details, inserts a record
// into the database, and responds with the created book (including its
// database-assigned ID and timestamps) and a 201 Created status.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title         string `json:"title"`
		Author        string `json:"author"`
		ISBN          string `json:"isbn"`
		Genre         string `json:"genre"`
		Description   string `json:"description"`
		PublishedYear int    `json:"published_year"`
		TotalCopies   int    `json:"total_copies"`
	}

	// Decode the incoming JSON body into our input struct using the safe readJSON helper.
	// readJSON enforces a 1MB limit, rejects unknown fields, and ensures a single value.
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := &data.Book{
		Title:         input.Title,
		Author:        input.Author,
		ISBN:          input.ISBN,
		Genre:         input.Genre,
		Description:   input.Description,
		PublishedYear: input.PublishedYear,
		TotalCopies:   input.TotalCopies,
	}

	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	// Persist the book to the database.
	// Insert() also writes the auto-generated ID and timestamps back into book.
	err = app.models.Books.Insert(book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateISBN):
			v.AddError("isbn", "a book with this ISBN already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Respond with the fully-populated book and a 201 Created status.
	err = app.writeJSON(w, http.StatusCreated, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /v1/books/:id.
// Responds 404 if no book with that ID exists.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	// readIDParam extracts and validates the :id URL parameter.
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /v1/books.
// Supports ?title= (substring search), ?genre= (exact match), plus the
// standard page/page_size/sort query parameters.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title   string
		Genre   string
		Filters data.Filters
	}

	qs := r.URL.Query()
	input.Title = app.readString(qs, "title", "")
	input.Genre = app.readString(qs, "genre", "")
	input.Filters.Page = app.readInt(qs, "page", 1)
	input.Filters.PageSize = app.readInt(qs, "page_size", 20)
	input.Filters.Sort = app.readString(qs, "sort", "book_id")
	input.Filters.SortSafeList = []string{
		"book_id", "title", "author", "published_year",
		"-book_id", "-title", "-author", "-published_year",
	}

	v := validator.New()
	v.Check(input.Filters.Page > 0, "page", "must be greater than zero")
	v.Check(input.Filters.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(input.Filters.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(input.Filters.PageSize <= 100, "page_size", "must be a maximum of 100")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	books, metadata, err := app.models.Books.GetAll(input.Title, input.Genre, input.Filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"books": books, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PATCH /v1/books/:id.
// It reads a partial JSON body, fetches the existing book, applies only the
// provided fields, and saves the changes. Changing total_copies shifts
// available_copies by the same delta, so copies already out on loan are
// unaffected; a shrink below the outstanding loan count is rejected.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	// Parse and validate the :id URL parameter.
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Every field is a pointer; nil means "not provided, leave as-is".
	var input struct {
		Title         *string `json:"title"`
		Author        *string `json:"author"`
		ISBN          *string `json:"isbn"`
		Genre         *string `json:"genre"`
		Description   *string `json:"description"`
		PublishedYear *int    `json:"published_year"`
		TotalCopies   *int    `json:"total_copies"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.ISBN != nil {
		book.ISBN = *input.ISBN
	}
	if input.Genre != nil {
		book.Genre = *input.Genre
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.PublishedYear != nil {
		book.PublishedYear = *input.PublishedYear
	}

	v := validator.New()
	if input.TotalCopies != nil {
		v.Check(*input.TotalCopies >= 1, "total_copies", "must be at least 1")
		if !v.Valid() {
			app.failedValidationResponse(w, r, v.Errors)
			return
		}
		// Early rejection against the snapshot we just read. The
		// authoritative guard is inside Books.Update, which applies the
		// delta against the live row, so a borrow landing between here
		// and the UPDATE still cannot be overwritten.
		if err := book.AdjustTotal(*input.TotalCopies); err != nil {
			v.AddError("total_copies", "cannot be reduced below the number of copies out on loan")
			app.failedValidationResponse(w, r, v.Errors)
			return
		}
	}

	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	// Persist the updated book back to the database.
	err = app.models.Books.Update(book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrDuplicateISBN):
			v.AddError("isbn", "a book with this ISBN already exists")
			app.failedValidationResponse(w, r, v.Errors)
		case errors.Is(err, data.ErrCapacityExceeded):
			// A concurrent borrow shrank the headroom after our snapshot
			// check; the database rejected the delta.
			v.AddError("total_copies", "cannot be reduced below the number of copies out on loan")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Respond with the updated book.
	err = app.writeJSON(w, http.StatusOK, envelope{"book": book}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /v1/books/:id.
// A book with copies still out on loan cannot be deleted.
// Responds 404 if no book with that ID exists.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	// Parse and validate the :id URL parameter.
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Books.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrBookHasLoans):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	// Respond with a success message.
	err = app.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
