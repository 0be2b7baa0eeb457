package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/habits"
)

// ListHabits возвращает привычки текущего пользователя.
// GET /api/v1/habits?limit=&offset=
func (h *Handler) ListHabits(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	list, err := h.habits.List(r.Context(), userID, page)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	result := make([]HabitResponse, len(list))
	for i := range list {
		result[i] = HabitFromDomain(&list[i], h.habits.State(&list[i]))
	}

	List(w, result, len(result))
}

// ListPublicHabits возвращает публичные привычки.
// GET /api/v1/habits/public?limit=&offset=
func (h *Handler) ListPublicHabits(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	list, err := h.habits.ListPublic(r.Context(), page)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	result := make([]PublicHabitResponse, len(list))
	for i := range list {
		result[i] = PublicHabitFromDomain(&list[i])
	}

	List(w, result, len(result))
}

// CreateHabit создаёт привычку.
// POST /api/v1/habits
func (h *Handler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	habit, err := h.habits.Create(r.Context(), userID, req.Input())
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Created(w, HabitFromDomain(habit, h.habits.State(habit)))
}

// GetHabit возвращает привычку по ID.
// GET /api/v1/habits/{id}
func (h *Handler) GetHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid habit id")
		return
	}

	habit, err := h.habits.Get(r.Context(), userID, id)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, HabitFromDomain(habit, h.habits.State(habit)))
}

// UpdateHabit частично обновляет привычку.
// PUT|PATCH /api/v1/habits/{id}
func (h *Handler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid habit id")
		return
	}

	var req UpdateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	patch, err := req.Patch()
	if err != nil {
		BadRequest(w, "invalid related_habit or reward")
		return
	}

	habit, err := h.habits.Update(r.Context(), userID, id, patch)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	Success(w, HabitFromDomain(habit, h.habits.State(habit)))
}

// DeleteHabit удаляет привычку.
// DELETE /api/v1/habits/{id}
func (h *Handler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid habit id")
		return
	}

	if HandleServiceError(w, h.logger, h.habits.Delete(r.Context(), userID, id)) {
		return
	}

	NoContent(w)
}

// parsePage читает limit и offset из query.
func parsePage(w http.ResponseWriter, r *http.Request) (habits.Page, bool) {
	var page habits.Page
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return page, false
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid offset")
			return page, false
		}
		page.Offset = n
	}
	return page, true
}
