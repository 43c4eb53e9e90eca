package domain

import "time"

// Temple is a wish place users can discover and favorite.
type Temple struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Province    string   `json:"province"`
	Description string   `json:"description"`
	WishTypes   []string `json:"wish_types"`
	ImageURL    string   `json:"image_url"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

type TempleFilter struct {
	Query    string
	Province string
	Limit    int
	Offset   int
}

type Favorite struct {
	UserID    int64     `json:"user_id"`
	Temple    Temple    `json:"temple"`
	CreatedAt time.Time `json:"created_at"`
}
