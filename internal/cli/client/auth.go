package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/art-vbst/art-admin/internal/models"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TOTPRequest represents the one-time code submission
type TOTPRequest struct {
	TOTP string `json:"totp"`
}

// LoginResult is what a credential submission resolved to. Exactly one of
// User or TwoFactorRequired is set; QRCode is only present for first-time
// enrollment.
type LoginResult struct {
	User              *models.User
	TwoFactorRequired bool
	QRCode            string
}

// Me fetches the current identity
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: MePath})
	if err != nil {
		return nil, err
	}
	return JSON[models.User](resp)
}

// Refresh silently re-establishes the session and returns the identity
func (c *Client) Refresh(ctx context.Context) (*models.User, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: RefreshPath})
	if err != nil {
		return nil, err
	}
	return JSON[models.User](resp)
}

// Login submits credentials. The backend answers with either the identity or
// a second-factor signal.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   LoginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, err
	}
	return parseLoginResult(resp.Body)
}

func parseLoginResult(body []byte) (*LoginResult, error) {
	var signal struct {
		QRCode       string `json:"qr_code"`
		TOTPRequired bool   `json:"totp_required"`
		ID           string `json:"id"`
		Email        string `json:"email"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &signal); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	switch {
	case signal.QRCode != "":
		return &LoginResult{TwoFactorRequired: true, QRCode: signal.QRCode}, nil
	case signal.TOTPRequired:
		return &LoginResult{TwoFactorRequired: true}, nil
	case signal.ID == "" && signal.Email == "":
		// No identity in the body: the second factor is still pending
		return &LoginResult{TwoFactorRequired: true}, nil
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &LoginResult{User: &user}, nil
}

// VerifyTOTP submits a one-time code and returns the identity
func (c *Client) VerifyTOTP(ctx context.Context, code string) (*models.User, error) {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   TOTPPath,
		Body:   TOTPRequest{TOTP: code},
	})
	if err != nil {
		return nil, err
	}
	return JSON[models.User](resp)
}

// Logout terminates the session server-side
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: LogoutPath})
	return err
}
