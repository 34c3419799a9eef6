package veriaccess

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/session"
)

// LoginResponse is returned by login and, when the backend signs the new
// account in, by register.
type LoginResponse struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    *session.User `json:"user,omitempty"`
}

// Registration is the sign-up body. Staff and superuser flags are always
// sent as false.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ProfileUpdate is a partial profile change. Empty fields are left alone.
type ProfileUpdate struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// PasswordChange is the change-password body.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// ErrMissingCredentials is returned by Login before any request is made.
var ErrMissingCredentials = errors.New("username and password are required")

// Login authenticates and persists the token pair and user.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	var resp LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, api.LoginPath, body, &resp); err != nil {
		return nil, err
	}
	if err := c.persist(resp, false); err != nil {
		return nil, err
	}
	c.log.WithField("username", username).Info("signed in")
	return &resp, nil
}

// Register creates an account. Tokens in the response are persisted only
// when both are present.
func (c *Client) Register(ctx context.Context, reg Registration) (*LoginResponse, error) {
	body := struct {
		Registration
		IsStaff     bool `json:"is_staff"`
		IsSuperuser bool `json:"is_superuser"`
	}{Registration: reg}

	var resp LoginResponse
	if err := c.post(ctx, "/auth/register/", body, &resp); err != nil {
		return nil, err
	}
	if err := c.persist(resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) persist(resp LoginResponse, requireBoth bool) error {
	if requireBoth && (resp.Access == "" || resp.Refresh == "") {
		return nil
	}
	if resp.Access != "" || resp.Refresh != "" {
		access := resp.Access
		if access == "" {
			access, _ = c.session.AccessToken()
		}
		if err := c.session.SetTokens(access, resp.Refresh); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}
	if resp.User != nil {
		if err := c.session.SetUser(*resp.User); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}
	return nil
}

// Me fetches the signed-in user and refreshes the cached copy.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.get(ctx, "/auth/me/", nil, &user); err != nil {
		return nil, err
	}
	c.cacheUser(user)
	return &user, nil
}

// UpdateProfile patches the signed-in user and refreshes the cached copy.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*session.User, error) {
	var user session.User
	if err := c.patch(ctx, "/auth/me/", update, &user); err != nil {
		return nil, err
	}
	c.cacheUser(user)
	return &user, nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) (string, error) {
	var resp Detail
	if err := c.post(ctx, "/auth/change-password/", change, &resp); err != nil {
		return "", err
	}
	return resp.Detail, nil
}

// Logout tells the backend and clears the local session. The session is
// cleared even when the backend call fails; only a failure to clear is
// returned.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout/", nil, nil); err != nil {
		c.log.WithError(err).Warn("logout request failed")
	}
	return c.session.Clear()
}

// CheckSession reports whether the stored session is still accepted by the
// backend. An expired access token is refreshed by the pipeline on the way.
func (c *Client) CheckSession(ctx context.Context) bool {
	if _, ok := c.session.AccessToken(); !ok {
		return false
	}
	if _, err := c.Me(ctx); err != nil {
		c.log.WithError(err).Info("session check failed")
		return false
	}
	return true
}

func (c *Client) cacheUser(user session.User) {
	if err := c.session.SetUser(user); err != nil {
		c.log.WithError(err).Warn("cache user")
	}
}
