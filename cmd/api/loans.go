// cmd/api/loans.go
// This file contains the HTTP request handlers for the loan workflow:
// borrowing, returning, the on-demand overdue sweep, and loan queries.
package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmahoro/clms/internal/data"
	"github.com/dmahoro/clms/internal/validator"
)

// borrowBookHandler handles POST /v1/loans.
// It reads the borrower and book IDs from the JSON body and runs the borrow
// transaction. The whole operation is atomic: either the loan exists and
// the shelf count is decremented, or nothing changed.
func (app *applicationDependencies) borrowBookHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID int64 `json:"user_id"`
		BookID int64 `json:"book_id"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.UserID > 0, "user_id", "must be provided and greater than zero")
	v.Check(input.BookID > 0, "book_id", "must be provided and greater than zero")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	loan, err := app.models.Loans.Borrow(input.UserID, input.BookID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrUserSuspended):
			app.forbiddenResponse(w, r, err)
		case errors.Is(err, data.ErrBookUnavailable), errors.Is(err, data.ErrDuplicateLoan):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"loan": loan}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// returnBookHandler handles PUT /v1/loans/:id/return.
// Returning an OVERDUE loan follows the same path as a BORROWED one; if the
// book came back late an UNPAID penalty is created as part of the same
// transaction.
func (app *applicationDependencies) returnBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	loan, err := app.models.Loans.Return(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrAlreadyReturned):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"loan": loan}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// sweepOverdueLoansHandler handles POST /v1/loans/sweep.
// It runs the same reclassification as the background sweeper and reports
// how many loans were newly marked OVERDUE. Safe to call repeatedly.
func (app *applicationDependencies) sweepOverdueLoansHandler(w http.ResponseWriter, r *http.Request) {
	swept, err := app.models.Loans.MarkOverdue(time.Now().UTC())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"loans_marked_overdue": swept}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showLoanHandler handles GET /v1/loans/:id.
func (app *applicationDependencies) showLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	loan, err := app.models.Loans.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"loan": loan}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listLoansHandler handles GET /v1/loans.
// With ?overdue=true it lists only loans past their due date and not yet
// returned (swept or not); otherwise it lists every loan.
func (app *applicationDependencies) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	var (
		loans []*data.Loan
		err   error
	)

	if app.readBool(r.URL.Query(), "overdue", false) {
		loans, err = app.models.Loans.GetOverdue(time.Now().UTC())
	} else {
		loans, err = app.models.Loans.GetAll()
	}
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"loans": loans}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUserLoansHandler handles GET /v1/users/:id/loans.
func (app *applicationDependencies) listUserLoansHandler(w http.ResponseWriter, r *http.Request) {
	app.listLoansForUser(w, r, app.models.Loans.GetAllForUser)
}

// listUserActiveLoansHandler handles GET /v1/users/:id/loans/active.
// Active means BORROWED or OVERDUE: the book is still out.
func (app *applicationDependencies) listUserActiveLoansHandler(w http.ResponseWriter, r *http.Request) {
	app.listLoansForUser(w, r, app.models.Loans.GetActiveForUser)
}

// listLoansForUser is the shared implementation behind the per-user loan
// listings. It verifies the user exists before querying so an unknown user
// yields 404 rather than an empty list.
func (app *applicationDependencies) listLoansForUser(w http.ResponseWriter, r *http.Request, query func(int64) ([]*data.Loan, error)) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.models.Users.Get(id); err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	loans, err := query(id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"loans": loans}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
