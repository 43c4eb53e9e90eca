package domain

import "time"

type Todo struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoPatch carries optional updates; nil fields are left unchanged.
type TodoPatch struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}
