package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	errs "github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/sessions"
)

// Per-operation fallback messages, used when the gateway's error body carries
// no message field.
const (
	loginFailedMsg   = "Login failed"
	signupFailedMsg  = "Signup failed"
	refreshFailedMsg = "Token refresh failed"
	logoutFailedMsg  = "Logout failed"
	profileFailedMsg = "Failed to fetch profile"
	avatarFailedMsg  = "Failed to fetch avatar"
	verifyFailedMsg  = "Email verification failed"
	resendFailedMsg  = "Failed to resend verification email"
	forgotFailedMsg  = "Failed to send password reset email"
	resetFailedMsg   = "Password reset failed"
)

const maxErrorBodyBytes = 64 * 1024

var _ Gateway = (*Client)(nil)

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption modifies a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client (primarily for tests and
// custom transports).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a gateway client rooted at baseURL
// (e.g. "https://api.example.com").
func NewClient(baseURL string, timeout time.Duration, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// messageBody is the gateway's generic {"message": ...} envelope.
type messageBody struct {
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.postJSON(ctx, "login", "/auth/login", "", creds, &resp, loginFailedMsg); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.AccessToken == "" {
		return nil, errs.NewTransport("login", "", loginFailedMsg, errors.New("response missing user or token"))
	}
	return &resp, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*sessions.User, error) {
	var user sessions.User
	if err := c.postJSON(ctx, "signup", "/users", "", req, &user, signupFailedMsg); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Refresh(ctx context.Context, userID, refreshToken string) (string, error) {
	payload := struct {
		UserID       string `json:"userId"`
		RefreshToken string `json:"refreshToken"`
	}{UserID: userID, RefreshToken: refreshToken}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.postJSON(ctx, "refresh", "/auth/refresh", "", payload, &resp, refreshFailedMsg); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errs.NewTransport("refresh", "", refreshFailedMsg, errors.New("response missing access token"))
	}
	return resp.AccessToken, nil
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	var resp messageBody
	return c.postJSON(ctx, "logout", "/auth/logout", accessToken, nil, &resp, logoutFailedMsg)
}

func (c *Client) Profile(ctx context.Context, accessToken string) (*sessions.User, error) {
	var user sessions.User
	if err := c.postJSON(ctx, "profile", "/auth/profile", accessToken, nil, &user, profileFailedMsg); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Avatar(ctx context.Context, userID string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/avatar/"+userID, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "[Client.Avatar] NewRequestWithContext")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", errs.NewTransport("avatar", "", avatarFailedMsg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errs.NewTransport("avatar", readMessage(resp.Body), avatarFailedMsg, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errs.NewTransport("avatar", "", avatarFailedMsg, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	return c.messageCall(ctx, "verify_email", "/auth/verify-email",
		map[string]string{"token": token}, verifyFailedMsg)
}

func (c *Client) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	return c.messageCall(ctx, "resend_verification", "/auth/resend-verification",
		map[string]string{"email": email}, resendFailedMsg)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.messageCall(ctx, "forgot_password", "/auth/forgot-password",
		map[string]string{"email": email}, forgotFailedMsg)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return c.messageCall(ctx, "reset_password", "/auth/reset-password",
		map[string]string{"token": token, "password": newPassword}, resetFailedMsg)
}

// messageCall posts a payload and returns the server's message field.
func (c *Client) messageCall(ctx context.Context, op, path string, payload interface{}, fallback string) (string, error) {
	var resp messageBody
	if err := c.postJSON(ctx, op, path, "", payload, &resp, fallback); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// postJSON performs a POST against the gateway, normalizing every failure mode
// into a TransportError whose message comes from the response body when the
// gateway supplied one.
func (c *Client) postJSON(ctx context.Context, op, path, bearer string, payload, out interface{}, fallback string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrapf(err, "[Client.postJSON] marshal %s payload", op)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "[Client.postJSON] build %s request", op)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", bearer))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewTransport(op, "", fallback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.NewTransport(op, readMessage(resp.Body), fallback, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewTransport(op, "", fallback, err)
	}
	return nil
}

// readMessage pulls the message field out of an error body, if there is one.
func readMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}
	var mb messageBody
	if err := json.Unmarshal(data, &mb); err != nil {
		return ""
	}
	return mb.Message
}
