package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kedhare/gallery-cli/internal/passcrypt"
	"github.com/kedhare/gallery-cli/internal/session"
)

// AuthUser is the user block of the issuance response.
type AuthUser struct {
	ID   string       `json:"id"`
	Role session.Role `json:"role"`
}

type loginResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         AuthUser `json:"user"`
}

// Login exchanges credentials for a session. The password is sealed in
// the shared-key envelope before it leaves the process. On success the
// full session is saved through the store and the role is returned so
// the caller can pick the landing route; on failure the store is left
// untouched and the server's message is surfaced.
func (c *Client) Login(ctx context.Context, email, password string) (session.Role, error) {
	sealed, err := passcrypt.Encrypt(password, c.passKey)
	if err != nil {
		return "", err
	}

	var out loginResponse

	err = c.postJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": sealed,
	}, &out)
	if err != nil {
		return "", err
	}

	if out.AccessToken == "" || out.RefreshToken == "" {
		return "", fmt.Errorf("api: login response missing tokens")
	}

	sess := session.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Role:         out.User.Role,
		UserID:       out.User.ID,
	}

	if err := c.store.Save(sess); err != nil {
		return "", err
	}

	c.logger.Info("login successful",
		slog.String("user_id", out.User.ID),
		slog.String("role", string(out.User.Role)),
	)

	return out.User.Role, nil
}

// Logout best-effort revokes the refresh token by user id, then always
// clears the session store. Revocation failures are logged and
// swallowed so the client never stays in a logged-in-looking state just
// because the server was unreachable. The revoke call goes through
// dispatch directly — it must never trigger a renewal of the session it
// is tearing down.
func (c *Client) Logout(ctx context.Context) {
	sess := c.store.Load()

	if sess.UserID != "" {
		body := []byte(fmt.Sprintf(`{"userId":%q}`, sess.UserID))

		resp, err := c.dispatch(ctx, http.MethodPost, "/api/auth/logout", body, contentTypeJSON, sess.AccessToken)
		if err != nil {
			c.logger.Warn("session revoke failed, clearing anyway",
				slog.String("error", err.Error()),
			)
		} else {
			resp.Body.Close()

			if resp.StatusCode >= http.StatusMultipleChoices {
				c.logger.Warn("session revoke rejected, clearing anyway",
					slog.Int("status", resp.StatusCode),
				)
			}
		}
	}

	c.store.Clear()
}

// Register creates a single account via the signup endpoint. The
// password travels in the same sealed envelope as login.
func (c *Client) Register(ctx context.Context, username, email, phone, password string, role session.Role) error {
	sealed, err := passcrypt.Encrypt(password, c.passKey)
	if err != nil {
		return err
	}

	return c.postJSON(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"phone":    phone,
		"password": sealed,
		"role":     string(role),
	}, nil)
}

type msgResponse struct {
	Msg string `json:"msg"`
}

// ForgotPassword asks the server to send a reset OTP to the given
// address. Returns the server's confirmation message.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out msgResponse

	err := c.postJSON(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": email,
	}, &out)
	if err != nil {
		return "", err
	}

	return out.Msg, nil
}

// ResetPassword completes the OTP reset flow. The new password is
// sealed before transmission, like every other password path.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	sealed, err := passcrypt.Encrypt(newPassword, c.passKey)
	if err != nil {
		return "", err
	}

	var out msgResponse

	err = c.postJSON(ctx, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"email":       email,
		"otp":         otp,
		"newPassword": sealed,
	}, &out)
	if err != nil {
		return "", err
	}

	return out.Msg, nil
}
