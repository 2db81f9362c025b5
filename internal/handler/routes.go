package handler

import (
	"net/http"

	"github.com/msomdec/taskdeck/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. The limiter
// guards the credential endpoints; every /tasks route and the profile
// route sit behind bearer-token auth.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, tasks *service.TaskService, limiter *service.LoginLimiter) {
	authHandler := NewAuthHandler(auth)
	taskHandler := NewTaskHandler(tasks)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.Handle("POST /auth/signup", RateLimit(limiter, http.HandlerFunc(authHandler.HandleSignup)))
	mux.Handle("POST /auth/login", RateLimit(limiter, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /auth/logout", authHandler.HandleLogout)
	mux.HandleFunc("POST /auth/refresh", authHandler.HandleRefresh)
	mux.Handle("GET /auth/profile", RequireAuth(auth, http.HandlerFunc(authHandler.HandleProfile)))

	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, h)
	}
	mux.Handle("GET /tasks", protected(taskHandler.HandleList))
	mux.Handle("POST /tasks", protected(taskHandler.HandleCreate))
	mux.Handle("GET /tasks/stats", protected(taskHandler.HandleStats))
	mux.Handle("GET /tasks/completed", protected(taskHandler.HandleCompleted))
	mux.Handle("GET /tasks/{id}", protected(taskHandler.HandleGet))
	mux.Handle("PUT /tasks/{id}", protected(taskHandler.HandleUpdate))
	mux.Handle("DELETE /tasks/{id}", protected(taskHandler.HandleDelete))
	mux.Handle("PATCH /tasks/{id}/complete", protected(taskHandler.HandleComplete))
}
