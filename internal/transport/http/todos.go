package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/internal/repository/postgres"
)

const maxTodoTitle = 200

type TodoRepository interface {
	ListTodos(ctx context.Context, userID int64) ([]domain.Todo, error)
	CreateTodo(ctx context.Context, t *domain.Todo) error
	UpdateTodo(ctx context.Context, userID int64, id string, patch domain.TodoPatch) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, userID int64, id string) error
}

type TodoHandler struct {
	Todos TodoRepository
}

func NewTodoHandler(todos TodoRepository) *TodoHandler {
	return &TodoHandler{Todos: todos}
}

func validTitle(title string) (string, bool) {
	title = strings.TrimSpace(title)
	return title, title != "" && utf8.RuneCountInString(title) <= maxTodoTitle
}

func todoID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", errors.New("invalid id")
	}
	return id.String(), nil
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	todos, err := h.Todos.ListTodos(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch todos", err)
		return
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input", err)
		return
	}
	title, ok := validTitle(req.Title)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "Title must be 1-200 characters", nil)
		return
	}

	todo := &domain.Todo{ID: uuid.NewString(), UserID: claims.UserID, Title: title}
	if err := h.Todos.CreateTodo(r.Context(), todo); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to create todo", err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	id, err := todoID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	var patch domain.TodoPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input", err)
		return
	}
	if patch.Title == nil && patch.Done == nil {
		writeError(w, r, http.StatusBadRequest, "Nothing to update", nil)
		return
	}
	if patch.Title != nil {
		title, ok := validTitle(*patch.Title)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "Title must be 1-200 characters", nil)
			return
		}
		patch.Title = &title
	}

	todo, err := h.Todos.UpdateTodo(r.Context(), claims.UserID, id, patch)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Todo not found", err)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to update todo", err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	id, err := todoID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	err = h.Todos.DeleteTodo(r.Context(), claims.UserID, id)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Todo not found", err)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to delete todo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
