package api

import (
	"rag-engine/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes builds the router with the global middleware chain:
// tracing first, then panic recovery, then CORS.
func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/upload", h.UploadDocument).Methods("POST")
	api.HandleFunc("/chat", h.Chat).Methods("POST")
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	api.HandleFunc("/health", h.Health).Methods("GET")

	r.HandleFunc("/ws/chat", h.HandleChatWebSocket)

	return r
}
