// cmd/api/penalties.go
// This file contains the HTTP request handlers for the penalty ledger.
package main

import (
	"errors"
	"net/http"

	"github.com/dmahoro/clms/internal/data"
)

// showPenaltyHandler handles GET /v1/penalties/:id.
func (app *applicationDependencies) showPenaltyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	penalty, err := app.models.Penalties.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"penalty": penalty}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listPenaltiesHandler handles GET /v1/penalties.
func (app *applicationDependencies) listPenaltiesHandler(w http.ResponseWriter, r *http.Request) {
	penalties, err := app.models.Penalties.GetAll()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"penalties": penalties}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// waivePenaltyHandler handles PUT /v1/penalties/:id/waive.
// Waiving is idempotent: waiving an already-waived penalty succeeds and
// leaves it WAIVED. Responds 404 if the penalty does not exist.
func (app *applicationDependencies) waivePenaltyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	penalty, err := app.models.Penalties.Waive(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"penalty": penalty}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUserPenaltiesHandler handles GET /v1/users/:id/penalties.
func (app *applicationDependencies) listUserPenaltiesHandler(w http.ResponseWriter, r *http.Request) {
	app.listPenaltiesForUser(w, r, app.models.Penalties.GetAllForUser)
}

// listUserUnpaidPenaltiesHandler handles GET /v1/users/:id/penalties/unpaid.
func (app *applicationDependencies) listUserUnpaidPenaltiesHandler(w http.ResponseWriter, r *http.Request) {
	app.listPenaltiesForUser(w, r, app.models.Penalties.GetUnpaidForUser)
}

// showUserPenaltyTotalHandler handles GET /v1/users/:id/penalties/total.
// The total is the exact-decimal sum of the user's UNPAID penalties; a user
// with no unpaid penalties owes 0, which is still a 200 response.
func (app *applicationDependencies) showUserPenaltyTotalHandler(w http.ResponseWriter, r *http.Request) {
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

	total, err := app.models.Penalties.TotalUnpaidForUser(id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"total_unpaid": total}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listPenaltiesForUser is the shared implementation behind the per-user
// penalty listings. It verifies the user exists before querying so an
// unknown user yields 404 rather than an empty list.
func (app *applicationDependencies) listPenaltiesForUser(w http.ResponseWriter, r *http.Request, query func(int64) ([]*data.Penalty, error)) {
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

	penalties, err := query(id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"penalties": penalties}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
