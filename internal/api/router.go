package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/auth"
	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/workflow"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(database *sqlx.DB, engine *workflow.Engine, issuer *auth.Issuer) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: database, Issuer: issuer}
	usersHandler := &UsersHandler{DB: database}
	transfersHandler := &TransfersHandler{Engine: engine}
	assetsHandler := &AssetsHandler{DB: database}
	directoryHandler := &DirectoryHandler{DB: database}
	notificationsHandler := &NotificationsHandler{DB: database}

	authMW := AuthMiddleware(issuer, database)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireWrite := RequireRole(model.WriteRoles...)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", Health(database))

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Transfers: the engine decides who may do what.
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfersHandler.List)))
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("POST /api/transfers/{id}/approve-ops", authMW(http.HandlerFunc(transfersHandler.ApproveOps)))
	mux.Handle("POST /api/transfers/{id}/approve-mgr", authMW(http.HandlerFunc(transfersHandler.ApproveManager)))
	mux.Handle("DELETE /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Delete)))

	// Asset directory: read (all roles), write (write roles).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireWrite(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("GET /api/assets/{id}/history", authMW(http.HandlerFunc(assetsHandler.History)))

	mux.Handle("GET /api/rigs", authMW(http.HandlerFunc(directoryHandler.ListRigs)))
	mux.Handle("POST /api/rigs", authMW(requireWrite(http.HandlerFunc(directoryHandler.CreateRig))))
	mux.Handle("GET /api/companies", authMW(http.HandlerFunc(directoryHandler.ListCompanies)))
	mux.Handle("POST /api/companies", authMW(requireWrite(http.HandlerFunc(directoryHandler.CreateCompany))))

	// Notification inbox.
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("PUT /api/notifications/read-all", authMW(http.HandlerFunc(notificationsHandler.MarkAllRead)))
	mux.Handle("PUT /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))
	mux.Handle("DELETE /api/notifications", authMW(http.HandlerFunc(notificationsHandler.ClearRead)))
	mux.Handle("DELETE /api/notifications/{id}", authMW(http.HandlerFunc(notificationsHandler.Delete)))

	return mux
}
