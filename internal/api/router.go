// Package api exposes the inventory operations as a JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
)

// Config carries the token settings for the auth endpoints.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc *ledger.Service, cfg Config) http.Handler {
	mux := http.NewServeMux()
	db := svc.DB

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	usersHandler := &UsersHandler{DB: db}
	labsHandler := &LabsHandler{DB: db}
	itemsHandler := &ItemsHandler{Ledger: svc}
	transfersHandler := &TransfersHandler{Ledger: svc}
	requestsHandler := &RequestsHandler{Ledger: svc}
	maintenanceHandler := &MaintenanceHandler{Ledger: svc}
	complaintsHandler := &ComplaintsHandler{Ledger: svc}

	authMW := AuthMiddleware(cfg.JWTSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Labs: read (all roles), write (admin).
	mux.Handle("GET /api/labs", authed(labsHandler.List))
	mux.Handle("POST /api/labs", admin(labsHandler.Create))
	mux.Handle("GET /api/labs/{id}", authed(labsHandler.Get))
	mux.Handle("PUT /api/labs/{id}", admin(labsHandler.Update))
	mux.Handle("DELETE /api/labs/{id}", admin(labsHandler.Delete))

	// Items. Scope checks live in the ledger.
	mux.Handle("GET /api/items", authed(itemsHandler.List))
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/export", authed(itemsHandler.Export))
	mux.Handle("POST /api/items/import", authed(itemsHandler.Import))
	mux.Handle("GET /api/items/{id}", authed(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/status", authed(itemsHandler.UpdateStatus))
	mux.Handle("GET /api/items/{id}/history", authed(itemsHandler.History))

	// Transfers.
	mux.Handle("POST /api/transfers", authed(transfersHandler.Create))
	mux.Handle("GET /api/transfers", authed(transfersHandler.List))

	// Stock requests.
	mux.Handle("GET /api/requests", authed(requestsHandler.List))
	mux.Handle("POST /api/requests", authed(requestsHandler.Create))
	mux.Handle("POST /api/requests/{id}/approve", authed(requestsHandler.Approve))
	mux.Handle("POST /api/requests/{id}/reject", authed(requestsHandler.Reject))

	// Maintenance.
	mux.Handle("GET /api/maintenance", authed(maintenanceHandler.List))
	mux.Handle("POST /api/maintenance", authed(maintenanceHandler.Create))
	mux.Handle("GET /api/maintenance/summary", authed(maintenanceHandler.Summary))
	mux.Handle("GET /api/maintenance/template", authed(maintenanceHandler.Template))
	mux.Handle("POST /api/maintenance/import", authed(maintenanceHandler.Import))

	// Complaints.
	mux.Handle("GET /api/complaints", authed(complaintsHandler.List))
	mux.Handle("POST /api/complaints", authed(complaintsHandler.Create))
	mux.Handle("GET /api/complaints/{id}", authed(complaintsHandler.Get))
	mux.Handle("PUT /api/complaints/{id}/status", authed(complaintsHandler.UpdateStatus))
	mux.Handle("POST /api/complaints/{id}/attachments", authed(complaintsHandler.AddAttachments))
	mux.Handle("GET /api/complaints/{id}/attachments/{aid}", authed(complaintsHandler.GetAttachment))

	return mux
}
