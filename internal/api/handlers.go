// Package api exposes the HTTP and WebSocket surface: document upload,
// chat, session inspection, and health.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"rag-engine/internal/assistant"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests. Dependencies come in as interfaces
// defined in this package.
type Handler struct {
	qa             QAService
	sessions       SessionReader
	maxUploadBytes int64
}

// NewHandler wires the assistant and session reader into the HTTP
// surface. maxUploadMB bounds the multipart upload size.
func NewHandler(qa QAService, sessions SessionReader, maxUploadMB int) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	return &Handler{
		qa:             qa,
		sessions:       sessions,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

// UploadDocument accepts a multipart file upload, spools it to a temp
// file, and hands it to the assistant. The optional session_id form
// field reuses an existing session; omitting it creates one.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("missing or oversized file field: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	sessionID := r.FormValue("session_id")

	// The extractors need a path on disk, so spool the upload.
	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		http.Error(w, fmt.Sprintf("failed to store upload: %v", err), http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		http.Error(w, fmt.Sprintf("failed to store upload: %v", err), http.StatusInternalServerError)
		return
	}

	result := h.qa.UploadDocument(r.Context(), sessionID, header.Filename, tmp.Name())

	status := http.StatusOK
	if result.Status == assistant.StatusFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// Chat answers a question for a session. The response body is always a
// structured result; generation failures surface in it, not as HTTP
// errors.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Query     string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// An omitted session_id means "no document bound", which the
	// assistant reports as a structured failure, not a transport error.
	result := h.qa.Query(r.Context(), req.SessionID, req.Query)
	writeJSON(w, http.StatusOK, result)
}

// GetSession returns a session with its message history.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	sess, err := h.sessions.GetSessionInfo(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Health reports readiness: 200 when the assistant can serve, 503
// otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.qa.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
