package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vilatvok/rentbot/internal/domain"
)

func (c *Client) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(username), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context, page int) (*Page[domain.User], error) {
	var resp Page[domain.User]
	if err := c.getJSON(ctx, fmt.Sprintf("/users/?page=%d", page), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UserOffers(ctx context.Context, username string, page int) (*Page[domain.Offer], error) {
	var resp Page[domain.Offer]
	path := fmt.Sprintf("/users/%s/offers?page=%d", url.PathEscape(username), page)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateMe patches the current user's profile. 202 Accepted; the response
// body carries the server-confirmed record, which is the value to display.
func (c *Client) UpdateMe(ctx context.Context, fields map[string]string) (*domain.User, error) {
	var user domain.User
	if _, err := c.sendMultipart(ctx, http.MethodPatch, "/users/me", fields, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteMe deactivates the account. 204 No Content.
func (c *Client) DeleteMe(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/me", "", nil, nil)
	return err
}

// ResetAvatar restores the default avatar. 204 No Content.
func (c *Client) ResetAvatar(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/reset-avatar", "", nil, nil)
	return err
}

// ChangePassword replaces the current password. 202 Accepted.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}{oldPassword, newPassword}
	_, err := c.doJSON(ctx, http.MethodPut, "/users/password", payload, nil)
	return err
}

// RequestPasswordReset asks for a reset letter. 202 Accepted.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	payload := struct {
		Email string `json:"email"`
	}{email}
	_, err := c.postJSON(ctx, "/users/password-reset", payload, nil)
	return err
}

// ConfirmPasswordReset submits the new password under an emailed reset token.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, password1, password2 string) error {
	payload := struct {
		Password1 string `json:"password1"`
		Password2 string `json:"password2"`
	}{password1, password2}
	path := "/auth/password-reset/" + url.PathEscape(token)
	_, err := c.doJSON(ctx, http.MethodPatch, path, payload, nil)
	return err
}
