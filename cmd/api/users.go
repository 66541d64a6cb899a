// cmd/api/users.go
// This file contains all HTTP request handlers for user accounts:
// registration, lookups, suspension, reactivation, and deletion.
package main

import (
	"errors"
	"net/http"

	"github.com/dmahoro/clms/internal/data"
	"github.com/dmahoro/clms/internal/validator"
)

// registerUserHandler handles POST /v1/users.
// New accounts always start as ACTIVE patrons; the password is hashed with
// bcrypt before anything touches the database.
func (app *applicationDependencies) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &data.User{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     data.RolePatron,
		Status:   data.UserActive,
	}

	err = user.Password.Set(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	v := validator.New()
	if data.ValidateUser(v, user); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Users.Insert(user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "a user with this email address already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showUserHandler handles GET /v1/users/:id.
func (app *applicationDependencies) showUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.models.Users.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUsersHandler handles GET /v1/users.
// Supports ?role=PATRON or ?role=ADMIN to filter by role.
func (app *applicationDependencies) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	role := app.readString(r.URL.Query(), "role", "")

	if role != "" {
		v := validator.New()
		v.Check(validator.In(role, data.RolePatron, data.RoleAdmin), "role", "must be PATRON or ADMIN")
		if !v.Valid() {
			app.failedValidationResponse(w, r, v.Errors)
			return
		}
	}

	users, err := app.models.Users.GetAll(role)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"users": users}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// suspendUserHandler handles PUT /v1/users/:id/suspend.
// Suspension only blocks new borrows; loans the user already holds stay out
// until returned. Suspending twice is a no-op.
func (app *applicationDependencies) suspendUserHandler(w http.ResponseWriter, r *http.Request) {
	app.setUserStatusHandler(w, r, data.UserSuspended)
}

// activateUserHandler handles PUT /v1/users/:id/activate.
func (app *applicationDependencies) activateUserHandler(w http.ResponseWriter, r *http.Request) {
	app.setUserStatusHandler(w, r, data.UserActive)
}

// setUserStatusHandler is the shared implementation behind suspend/activate.
func (app *applicationDependencies) setUserStatusHandler(w http.ResponseWriter, r *http.Request, status string) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.models.Users.SetStatus(id, status)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteUserHandler handles DELETE /v1/users/:id.
// Responds 404 if no user with that ID exists.
func (app *applicationDependencies) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Users.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrUserHasLoans), errors.Is(err, data.ErrUserHasPenalties):
			app.conflictResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
