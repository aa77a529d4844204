package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pzaremba/site-auth-be/internal/services"
)

// AccountHandler handles HTTP requests for registration, login and lookup.
type AccountHandler struct {
	service  services.AccountServiceProvider
	validate *validator.Validate
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service services.AccountServiceProvider) *AccountHandler {
	return &AccountHandler{service: service, validate: validator.New()}
}

// RegisterPayload defines the structure for registration requests.
// Email format beyond non-emptiness is deliberately not checked.
type RegisterPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginPayload defines the structure for login requests. Email is the
// primary identifier; username is accepted as an alternate.
type LoginPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// Register handles new account registration.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if _, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password); err != nil {
		h.respondError(w, err, "Failed to register user")
		return
	}
	respondMessage(w, http.StatusCreated, "Registered successfully")
}

// Login handles authentication attempts.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respondMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	identifier := payload.Email
	if identifier == "" {
		identifier = payload.Username
	}

	acc, err := h.service.Login(r.Context(), identifier, payload.Password)
	if err != nil {
		log.Warn().Err(err).Msg("Failed authentication attempt")
		h.respondError(w, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Logged in successfully",
		"userId":   acc.ID,
		"email":    acc.Email,
		"username": acc.Username,
	})
}

// Get handles retrieving an account by its id.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	acc, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "Failed to fetch user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"username": acc.Username,
		"email":    acc.Email,
		"userId":   acc.ID,
	})
}

// respondError maps service errors to status codes and generic messages.
// Messages match the original endpoints and never name the colliding field
// or distinguish unknown users from wrong passwords.
func (h *AccountHandler) respondError(w http.ResponseWriter, err error, logMsg string) {
	var locked *services.AccountLockedError
	switch {
	case errors.Is(err, services.ErrMissingFields):
		respondMessage(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, services.ErrPasswordTooShort):
		respondMessage(w, http.StatusBadRequest, "Password must be at least 6 characters")
	case errors.Is(err, services.ErrInvalidID):
		respondMessage(w, http.StatusBadRequest, "Invalid user id")
	case errors.Is(err, services.ErrDuplicateAccount):
		respondMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondMessage(w, http.StatusBadRequest, "Invalid credentials")
	case errors.As(err, &locked):
		w.Header().Set("Retry-After", strconv.Itoa(int(locked.RetryAfter/time.Second)))
		respondMessage(w, http.StatusForbidden, "Account temporarily locked")
	case errors.Is(err, services.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "User not found")
	default:
		log.Error().Err(err).Msg(logMsg)
		respondMessage(w, http.StatusInternalServerError, "Server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
