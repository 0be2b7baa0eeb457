package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	public := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(h.metrics),
	)
	private := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(h.metrics),
		Auth(h.sessions, h.logger),
	)

	// Users
	mux.Handle("POST /api/v1/users", public(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/v1/auth/login", public(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/v1/auth/logout", private(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /api/v1/users/me", private(http.HandlerFunc(h.GetMe)))
	mux.Handle("PUT /api/v1/users/me", private(http.HandlerFunc(h.UpdateMe)))
	mux.Handle("PATCH /api/v1/users/me", private(http.HandlerFunc(h.UpdateMe)))
	mux.Handle("DELETE /api/v1/users/me", private(http.HandlerFunc(h.DeleteMe)))

	// Habits
	mux.Handle("GET /api/v1/habits", private(http.HandlerFunc(h.ListHabits)))
	mux.Handle("POST /api/v1/habits", private(http.HandlerFunc(h.CreateHabit)))
	mux.Handle("GET /api/v1/habits/public", private(http.HandlerFunc(h.ListPublicHabits)))
	mux.Handle("GET /api/v1/habits/{id}", private(http.HandlerFunc(h.GetHabit)))
	mux.Handle("PUT /api/v1/habits/{id}", private(http.HandlerFunc(h.UpdateHabit)))
	mux.Handle("PATCH /api/v1/habits/{id}", private(http.HandlerFunc(h.UpdateHabit)))
	mux.Handle("DELETE /api/v1/habits/{id}", private(http.HandlerFunc(h.DeleteHabit)))

	// Telegram
	mux.Handle("POST /api/v1/telegram/link", private(http.HandlerFunc(h.CreateTelegramLink)))
	mux.Handle("POST /api/v1/telegram/confirm", public(http.HandlerFunc(h.ConfirmTelegramLink)))
}
