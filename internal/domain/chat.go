package domain

import "time"

type Chat struct {
	ID           int64 `json:"id"`
	FirstUserID  int64 `json:"first_user_id"`
	SecondUserID int64 `json:"second_user_id"`
}

// Message is produced by the backend; the client never assigns its own ID.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Sender    User      `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
