package gatewayfakes

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-manager/gateway"
	"github.com/jrsteele09/go-session-manager/sessions"
)

var _ gateway.Gateway = (*FakeGateway)(nil)

// FakeGateway is a hand-written test double for gateway.Gateway. Each operation
// delegates to its Fn field when set and fails otherwise; call counts are
// recorded for assertions.
type FakeGateway struct {
	LoginFn  func(ctx context.Context, creds gateway.Credentials) (*gateway.LoginResponse, error)
	SignupFn func(ctx context.Context, req gateway.SignupRequest) (*sessions.User, error)

	RefreshFn func(ctx context.Context, userID, refreshToken string) (string, error)
	LogoutFn  func(ctx context.Context, accessToken string) error

	ProfileFn func(ctx context.Context, accessToken string) (*sessions.User, error)
	AvatarFn  func(ctx context.Context, userID string) ([]byte, string, error)

	VerifyEmailFn             func(ctx context.Context, token string) (string, error)
	ResendVerificationEmailFn func(ctx context.Context, email string) (string, error)
	ForgotPasswordFn          func(ctx context.Context, email string) (string, error)
	ResetPasswordFn           func(ctx context.Context, token, newPassword string) (string, error)

	LoginCalls   int
	SignupCalls  int
	RefreshCalls int
	LogoutCalls  int
	ProfileCalls int
	AvatarCalls  int

	lock sync.Mutex
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (g *FakeGateway) Login(ctx context.Context, creds gateway.Credentials) (*gateway.LoginResponse, error) {
	g.lock.Lock()
	g.LoginCalls++
	g.lock.Unlock()
	if g.LoginFn == nil {
		return nil, errors.New("FakeGateway: Login not stubbed")
	}
	return g.LoginFn(ctx, creds)
}

func (g *FakeGateway) Signup(ctx context.Context, req gateway.SignupRequest) (*sessions.User, error) {
	g.lock.Lock()
	g.SignupCalls++
	g.lock.Unlock()
	if g.SignupFn == nil {
		return nil, errors.New("FakeGateway: Signup not stubbed")
	}
	return g.SignupFn(ctx, req)
}

func (g *FakeGateway) Refresh(ctx context.Context, userID, refreshToken string) (string, error) {
	g.lock.Lock()
	g.RefreshCalls++
	g.lock.Unlock()
	if g.RefreshFn == nil {
		return "", errors.New("FakeGateway: Refresh not stubbed")
	}
	return g.RefreshFn(ctx, userID, refreshToken)
}

func (g *FakeGateway) Logout(ctx context.Context, accessToken string) error {
	g.lock.Lock()
	g.LogoutCalls++
	g.lock.Unlock()
	if g.LogoutFn == nil {
		return nil // Logout is best-effort, default to success
	}
	return g.LogoutFn(ctx, accessToken)
}

func (g *FakeGateway) Profile(ctx context.Context, accessToken string) (*sessions.User, error) {
	g.lock.Lock()
	g.ProfileCalls++
	g.lock.Unlock()
	if g.ProfileFn == nil {
		return nil, errors.New("FakeGateway: Profile not stubbed")
	}
	return g.ProfileFn(ctx, accessToken)
}

func (g *FakeGateway) Avatar(ctx context.Context, userID string) ([]byte, string, error) {
	g.lock.Lock()
	g.AvatarCalls++
	g.lock.Unlock()
	if g.AvatarFn == nil {
		return nil, "", errors.New("FakeGateway: Avatar not stubbed")
	}
	return g.AvatarFn(ctx, userID)
}

func (g *FakeGateway) VerifyEmail(ctx context.Context, token string) (string, error) {
	if g.VerifyEmailFn == nil {
		return "", errors.New("FakeGateway: VerifyEmail not stubbed")
	}
	return g.VerifyEmailFn(ctx, token)
}

func (g *FakeGateway) ResendVerificationEmail(ctx context.Context, email string) (string, error) {
	if g.ResendVerificationEmailFn == nil {
		return "", errors.New("FakeGateway: ResendVerificationEmail not stubbed")
	}
	return g.ResendVerificationEmailFn(ctx, email)
}

func (g *FakeGateway) ForgotPassword(ctx context.Context, email string) (string, error) {
	if g.ForgotPasswordFn == nil {
		return "", errors.New("FakeGateway: ForgotPassword not stubbed")
	}
	return g.ForgotPasswordFn(ctx, email)
}

func (g *FakeGateway) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if g.ResetPasswordFn == nil {
		return "", errors.New("FakeGateway: ResetPassword not stubbed")
	}
	return g.ResetPasswordFn(ctx, token, newPassword)
}
