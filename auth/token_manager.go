package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mbltya/cinebook/apierror"
	"github.com/mbltya/cinebook/constant"
	"github.com/mbltya/cinebook/entities"
)

type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

// TokenManager owns the bearer credential for every authenticated call.
// It logs in lazily, caches the token, and re-logs-in once the token's exp
// claim has passed. Core packages receive tokens from here and never touch
// ambient storage.
type TokenManager struct {
	mu           sync.Mutex
	token        string
	user         entities.User
	email        string
	password     string
	baseURL      string
	client       *http.Client
	timeProvider TimeProvider
}

type Options struct {
	// Token pre-seeds the manager; login is skipped while it is valid.
	Token    string
	Email    string
	Password string
	BaseURL  string
	Client   *http.Client
	// Time is injected by tests; nil means the wall clock.
	Time TimeProvider
}

func New(opts Options) *TokenManager {
	tm := &TokenManager{
		token:        opts.Token,
		email:        opts.Email,
		password:     opts.Password,
		baseURL:      opts.BaseURL,
		client:       opts.Client,
		timeProvider: opts.Time,
	}
	if tm.client == nil {
		tm.client = &http.Client{}
	}
	if tm.timeProvider == nil {
		tm.timeProvider = realTimeProvider{}
	}
	if opts.Token != "" {
		tm.user = userFromToken(opts.Token)
	}
	return tm
}

// Token returns a live bearer token, logging in when needed. A manager with
// neither a token nor credentials fails with ErrUnauthenticated: missing
// identity is a precondition failure, not a network error.
func (t *TokenManager) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && !t.expired(t.token) {
		return t.token, nil
	}
	if t.email == "" || t.password == "" {
		if t.token != "" {
			// An expired token with no way to refresh it.
			return "", fmt.Errorf("stored token expired: %w", apierror.ErrUnauthenticated)
		}
		return "", fmt.Errorf("no credentials configured: %w", apierror.ErrUnauthenticated)
	}
	if err := t.login(ctx); err != nil {
		return "", err
	}
	return t.token, nil
}

// User returns the authenticated identity. Requires a successful Token call
// first or a pre-seeded token carrying a userId claim.
func (t *TokenManager) User(ctx context.Context) (entities.User, error) {
	if _, err := t.Token(ctx); err != nil {
		return entities.User{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.user.ID == 0 {
		return entities.User{}, fmt.Errorf("token carries no user identity: %w", apierror.ErrUnauthenticated)
	}
	return t.user, nil
}

// Headers builds the header set for an authenticated request.
func (t *TokenManager) Headers(ctx context.Context) (map[string]string, error) {
	token, err := t.Token(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
	}, nil
}

// login is called with t.mu held.
func (t *TokenManager) login(ctx context.Context) error {
	body, err := json.Marshal(entities.LoginRequest{Email: t.email, Password: t.password})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}
	url := fmt.Sprintf(constant.LOGIN_URL, t.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return apierror.Transport(err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.Transport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return apierror.Normalize(resp.StatusCode, respBody)
	}

	var login entities.LoginResponse
	if err := json.Unmarshal(respBody, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if login.Token == "" {
		return fmt.Errorf("login response carried no token: %w", apierror.ErrUnauthenticated)
	}
	t.token = login.Token
	t.user = login.User
	if t.user.ID == 0 {
		t.user = userFromToken(login.Token)
	}
	return nil
}

// expired inspects the token's exp claim without verifying the signature;
// verification is the backend's job, this only decides when to refresh.
// Opaque non-JWT tokens never expire from the client's point of view.
func (t *TokenManager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return t.timeProvider.Now().After(exp.Time)
}

func userFromToken(token string) entities.User {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return entities.User{}
	}
	user := entities.User{}
	if id, ok := claims["userId"].(float64); ok {
		user.ID = int64(id)
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if sub, err := claims.GetSubject(); err == nil && user.Email == "" {
		user.Email = sub
	}
	return user
}
