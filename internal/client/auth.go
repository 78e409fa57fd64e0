package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/duynhne/marketplace/internal/core/domain"
)

// Session is the locally persisted login state.
type Session struct {
	AccessToken string      `json:"accessToken"`
	User        domain.User `json:"user"`
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*Session, error) {
	var resp domain.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return c.saveSession(ctx, resp)
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*Session, error) {
	var resp domain.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c.saveSession(ctx, resp)
}

// Logout ends the server session if there is one and always clears the
// local session. Only a failure to clear local storage is returned.
func (c *Client) Logout(ctx context.Context) error {
	_, ok, err := c.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Read access token failed, skipping server logout")
	}
	if err == nil && ok {
		if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
			c.logger.Warn().Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}
	return c.clearSession(ctx)
}

// CurrentSession returns the stored session, or nil when logged out.
func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	token, ok, err := c.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read access token: %w", err)
	}
	if !ok || token == "" {
		return nil, nil
	}

	s := &Session{AccessToken: token}
	raw, ok, err := c.storage.Get(ctx, KeyCurrentUser)
	if err != nil {
		return nil, fmt.Errorf("read current user: %w", err)
	}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.User); err != nil {
			return nil, fmt.Errorf("decode current user: %w", err)
		}
	}
	return s, nil
}

// Me fetches the user behind the stored token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &user, nil
}

func (c *Client) saveSession(ctx context.Context, resp domain.AuthResponse) (*Session, error) {
	if resp.Token == "" {
		return nil, errors.New("save session: empty token in response")
	}
	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	if err := c.storage.Set(ctx, KeyAccessToken, resp.Token); err != nil {
		return nil, fmt.Errorf("store access token: %w", err)
	}
	if err := c.storage.Set(ctx, KeyCurrentUser, string(userJSON)); err != nil {
		return nil, fmt.Errorf("store current user: %w", err)
	}
	return &Session{AccessToken: resp.Token, User: resp.User}, nil
}

func (c *Client) clearSession(ctx context.Context) error {
	for _, key := range []string{KeyAccessToken, KeyCurrentUser} {
		if err := c.storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}
