// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the recoverPanic and rateLimit middlewares.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → rateLimit → router
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Book catalog routes
	router.HandlerFunc(http.MethodPost, "/v1/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id", app.deleteBookHandler)

	// User management routes
	router.HandlerFunc(http.MethodPost, "/v1/users", app.registerUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users", app.listUsersHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id", app.showUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/:id/suspend", app.suspendUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/:id/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/users/:id", app.deleteUserHandler)

	// Loan workflow routes: borrowing, returning, and the on-demand sweep.
	// Overdue loans are listed via GET /v1/loans?overdue=true; httprouter
	// cannot mix a static segment with the :id wildcard at the same level.
	router.HandlerFunc(http.MethodPost, "/v1/loans", app.borrowBookHandler)
	router.HandlerFunc(http.MethodGet, "/v1/loans", app.listLoansHandler)
	router.HandlerFunc(http.MethodGet, "/v1/loans/:id", app.showLoanHandler)
	router.HandlerFunc(http.MethodPut, "/v1/loans/:id/return", app.returnBookHandler)
	router.HandlerFunc(http.MethodPost, "/v1/loans/sweep", app.sweepOverdueLoansHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/loans", app.listUserLoansHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/loans/active", app.listUserActiveLoansHandler)

	// Penalty ledger routes
	router.HandlerFunc(http.MethodGet, "/v1/penalties", app.listPenaltiesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/penalties/:id", app.showPenaltyHandler)
	router.HandlerFunc(http.MethodPut, "/v1/penalties/:id/waive", app.waivePenaltyHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/penalties", app.listUserPenaltiesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/penalties/unpaid", app.listUserUnpaidPenaltiesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/:id/penalties/total", app.showUserPenaltyTotalHandler)

	// Wrap with middleware: recoverPanic is outermost so it catches panics
	// from rateLimit and router alike.
	return app.recoverPanic(app.rateLimit(router))
}
