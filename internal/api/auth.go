package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vilatvok/rentbot/internal/domain"
)

// LoginResponse covers both login outcomes: a token pair, or a federated-auth
// handoff (GoogleURL and profile fields set, no tokens).
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	GoogleURL string `json:"google_url"`
	Email     string `json:"email"`
	GoogleID  string `json:"google_id"`
	Avatar    string `json:"avatar"`
}

// Login posts credentials to the given auth route as an OAuth2 password form.
func (c *Client) Login(ctx context.Context, route, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp LoginResponse
	if _, err := c.postForm(ctx, route, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register posts a registration form to the given route. The backend answers
// 200 with a confirmation notice; the account becomes active once the emailed
// link is followed.
func (c *Client) Register(ctx context.Context, route string, fields map[string]string) error {
	_, err := c.sendMultipart(ctx, http.MethodPost, route, fields, nil)
	return err
}

// ConfirmRegistration follows an emailed confirmation token.
func (c *Client) ConfirmRegistration(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/auth/register-confirm/"+url.PathEscape(token), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RefreshToken exchanges a refresh token for a new pair. A non-empty username
// asks the backend to reissue claims under the new name; the backend then
// returns a fresh refresh token as well.
func (c *Client) RefreshToken(ctx context.Context, refreshToken, username string) (*domain.TokenPair, error) {
	payload := struct {
		RefreshToken string `json:"refresh_token"`
		Username     string `json:"username,omitempty"`
	}{RefreshToken: refreshToken, Username: username}

	var pair domain.TokenPair
	if _, err := c.postJSON(ctx, "/auth/token/refresh", payload, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout asks the backend to blacklist the current access token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", "", nil, nil)
	return err
}

// GoogleLink fetches the federated-auth consent URL.
func (c *Client) GoogleLink(ctx context.Context) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, "/auth/google-auth/link", &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// GoogleLogin exchanges a consent code. The response is either a token pair
// or a handoff payload prompting registration.
func (c *Client) GoogleLogin(ctx context.Context, code string) (*LoginResponse, error) {
	var resp LoginResponse
	path := "/auth/google-auth/login?code=" + url.QueryEscape(code)
	if _, err := c.do(ctx, http.MethodPost, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
