package api

import (
	"database/sql"
	"net/http"

	"github.com/invtrack/invtrack/internal/model"
	"github.com/invtrack/invtrack/internal/notify"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, sender notify.Sender) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	suppliersHandler := &SuppliersHandler{DB: db}
	poHandler := &PurchaseOrdersHandler{DB: db}
	notificationsHandler := &NotificationsHandler{DB: db, Sender: sender}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.UpdateRole))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), write (manager+), delete (admin).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/low-stock", authMW(http.HandlerFunc(itemsHandler.ListLowStock)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Suppliers: read (all roles), write (manager+), delete (admin).
	mux.Handle("GET /api/suppliers", authMW(http.HandlerFunc(suppliersHandler.List)))
	mux.Handle("POST /api/suppliers", authMW(requireManager(http.HandlerFunc(suppliersHandler.Create))))
	mux.Handle("GET /api/suppliers/{id}", authMW(http.HandlerFunc(suppliersHandler.Get)))
	mux.Handle("PUT /api/suppliers/{id}", authMW(requireManager(http.HandlerFunc(suppliersHandler.Update))))
	mux.Handle("DELETE /api/suppliers/{id}", authMW(requireAdmin(http.HandlerFunc(suppliersHandler.Delete))))
	mux.Handle("GET /api/suppliers/{id}/items", authMW(http.HandlerFunc(suppliersHandler.GetItems)))

	// Purchase orders: read (all roles), write (manager+).
	mux.Handle("GET /api/purchase-orders", authMW(http.HandlerFunc(poHandler.List)))
	mux.Handle("POST /api/purchase-orders", authMW(requireManager(http.HandlerFunc(poHandler.Create))))
	mux.Handle("POST /api/purchase-orders/generate", authMW(requireManager(http.HandlerFunc(poHandler.Generate))))
	mux.Handle("GET /api/purchase-orders/{id}", authMW(http.HandlerFunc(poHandler.Get)))
	mux.Handle("PUT /api/purchase-orders/{id}", authMW(requireManager(http.HandlerFunc(poHandler.Update))))
	mux.Handle("DELETE /api/purchase-orders/{id}", authMW(requireManager(http.HandlerFunc(poHandler.Delete))))
	mux.Handle("PUT /api/purchase-orders/{id}/status", authMW(requireManager(http.HandlerFunc(poHandler.Transition))))

	// Notifications: settings and delivery (manager+).
	mux.Handle("GET /api/notifications/settings", authMW(requireManager(http.HandlerFunc(notificationsHandler.GetSettings))))
	mux.Handle("PUT /api/notifications/settings", authMW(requireManager(http.HandlerFunc(notificationsHandler.UpdateSettings))))
	mux.Handle("POST /api/notifications/evaluate", authMW(requireManager(http.HandlerFunc(notificationsHandler.Evaluate))))
	mux.Handle("POST /api/notifications/test", authMW(requireManager(http.HandlerFunc(notificationsHandler.Test))))

	return mux
}
