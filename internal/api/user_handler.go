package api

import (
	"encoding/json"
	"net/http"

	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
	"github.com/ViktorShadr/habit-reminder-api/internal/users"
)

// Register создаёт пользователя.
// POST /api/v1/users
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	u, err := h.users.Register(r.Context(), users.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		City:     req.City,
	})
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Created(w, UserFromDomain(u))
}

// Login выдаёт bearer-токен.
// POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(w, "email and password are required")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	token, err := h.sessions.Create(r.Context(), u.ID)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.sessions.TTL().Seconds()),
	})
}

// Logout отзывает текущий токен.
// POST /api/v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), tokenFromContext(r.Context())); err != nil {
		InternalError(w, h.logger, err)
		return
	}
	NoContent(w)
}

// GetMe возвращает профиль текущего пользователя.
// GET /api/v1/users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	u, err := h.users.Get(r.Context(), userID)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, UserFromDomain(u))
}

// UpdateMe изменяет профиль текущего пользователя.
// PUT /api/v1/users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	u, err := h.users.Update(r.Context(), userID, users.UpdateInput{
		Phone: req.Phone,
		City:  req.City,
	})
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, UserFromDomain(u))
}

// DeleteMe деактивирует текущего пользователя и отзывает токен.
// DELETE /api/v1/users/me
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if HandleServiceError(w, h.logger, h.users.Deactivate(r.Context(), userID)) {
		return
	}

	if err := h.sessions.Delete(r.Context(), tokenFromContext(r.Context())); err != nil {
		telemetry.FromContext(r.Context()).Warn("failed to revoke session", "error", err)
	}

	NoContent(w)
}
