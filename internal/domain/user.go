package domain

import "time"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Provider string `json:"provider"`
	IsActive bool   `json:"is_active,omitempty"`
}

type Company struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Logo      string    `json:"logo"`
	CreatedAt time.Time `json:"created_at"`
}
