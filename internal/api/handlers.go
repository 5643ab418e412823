package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"selfsight.app/journal/internal/auth"
	"selfsight.app/journal/internal/core"
	"selfsight.app/journal/internal/logger"
	"selfsight.app/journal/internal/store"
)

type APIHandler struct {
	journal         *core.JournalService
	recommendations *core.RecommendationService
	users           *core.UserService
}

func NewAPIHandler(js *core.JournalService, rs *core.RecommendationService, us *core.UserService) *APIHandler {
	return &APIHandler{journal: js, recommendations: rs, users: us}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// respondError maps service errors to status codes. Unexpected errors are
// logged and answered with msg only.
func respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, core.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		logger.Error(msg, "path", r.URL.Path, "user_id", userIDFromContext(r.Context()), "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Signup(req.Email, req.Name, req.Password)
	if err != nil {
		respondError(w, r, err, "Failed to create user")
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		respondError(w, r, err, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(w, r, err, "Failed to log in")
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		respondError(w, r, err, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetProfile(userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req store.Profile
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(userIDFromContext(r.Context()), req)
	if err != nil {
		respondError(w, r, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// exportLocation reads the optional ?tz= IANA zone used for export dates.
func exportLocation(r *http.Request) (*time.Location, error) {
	tz := r.URL.Query().Get("tz")
	if tz == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(tz)
}
