package domain

import "time"

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	AvatarURL    string     `json:"avatar_url"`
	GoogleID     string     `json:"-"`
	PasswordHash string     `json:"-"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
