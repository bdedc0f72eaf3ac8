package api

import (
	"context"
	"fmt"

	"github.com/vilatvok/rentbot/internal/domain"
)

// ChatID resolves the chat shared with another user. ErrNotFound when no
// chat exists yet.
func (c *Client) ChatID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	if err := c.getJSON(ctx, fmt.Sprintf("/chats/id?user_id=%d", userID), &id); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateChat opens a chat with another user. 201 Created.
func (c *Client) CreateChat(ctx context.Context, userID int64) (*domain.Chat, error) {
	payload := struct {
		UserID int64 `json:"user_id"`
	}{userID}

	var chat domain.Chat
	if _, err := c.postJSON(ctx, "/chats/", payload, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) GetChat(ctx context.Context, chatID int64) (*domain.Chat, error) {
	var chat domain.Chat
	if err := c.getJSON(ctx, fmt.Sprintf("/chats/%d", chatID), &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) ListChats(ctx context.Context, page int) (*Page[domain.Chat], error) {
	var resp Page[domain.Chat]
	if err := c.getJSON(ctx, fmt.Sprintf("/chats/?page=%d", page), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatMessages fetches the room history in the backend's send order.
func (c *Client) ChatMessages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	var resp Page[domain.Message]
	if err := c.getJSON(ctx, fmt.Sprintf("/chats/%d/messages", chatID), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ClearChat deletes every message in the room server-side.
func (c *Client) ClearChat(ctx context.Context, chatID int64) error {
	_, err := c.do(ctx, "DELETE", fmt.Sprintf("/chats/%d/clear", chatID), "", nil, nil)
	return err
}
