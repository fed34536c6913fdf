package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/textileio/go-threads/broadcast"

	"cryptics.app/cryptics-client/config"
	"cryptics.app/cryptics-client/constants"
	"cryptics.app/cryptics-client/model"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateAuthenticated State = "authenticated"
	StateRefreshing    State = "refreshing"
	StateAnonymous     State = "anonymous"
)

type EventType string

const (
	// another execution context rotated the tokens; adopt them
	EventTokens EventType = "tokens"
	// the session ended; drop local state
	EventLogout EventType = "logout"
)

type Event struct {
	Type   EventType
	Tokens *model.AuthTokens
}

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrRefreshTimeout   = errors.New("timed out waiting for concurrent refresh")
)

const proactiveRetryDelay = 15 * time.Second

// Session keeps exactly one valid access token available, refreshing it
// proactively before the exp claim runs out and reactively when a request
// comes back 401. Only one refresh is ever in flight across every caller
// sharing the store, because the backend rotates the refresh credential: a
// second concurrent refresh with the stale credential would fail and log the
// user out for no reason.
type Session struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	opts       config.AuthOptions
	events     *broadcast.Broadcaster
	log        *slog.Logger

	mu                sync.Mutex
	state             State
	tokens            *model.AuthTokens
	refreshTimer      *time.Timer
	proactiveFailures int
	closed            bool
}

type SessionOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      Store
	Auth       config.AuthOptions
}

func NewSession(options SessionOptions) *Session {
	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Session{
		baseURL:    options.BaseURL,
		httpClient: httpClient,
		store:      options.Store,
		opts:       options.Auth,
		events:     broadcast.NewBroadcaster(0),
		log:        slog.Default().With(slog.String("component", "auth")),
		state:      StateUninitialized,
	}
}

// Events delivers token-rotation and logout notifications, the in-process
// analog of the web client's cross-tab broadcast channel.
func (s *Session) Events() *broadcast.Listener {
	return s.events.Listen()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.AccessToken
}

func (s *Session) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil
	}
	return s.tokens.User
}

// Initialize restores a persisted session: a still-valid token is kept, a
// token at or past its refresh deadline is rotated first, and any failure
// leaves the session anonymous rather than erroring out startup.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateInitializing
	s.mu.Unlock()

	tokens, err := s.store.Load()
	if err != nil || tokens == nil {
		s.becomeAnonymous(false)
		return err
	}

	exp, hasExp := TokenExpiry(tokens.AccessToken)
	if hasExp && time.Until(exp) <= s.opts.RefreshBuffer {
		s.mu.Lock()
		s.tokens = tokens
		s.mu.Unlock()
		if _, err := s.Refresh(ctx); err != nil {
			s.log.Warn("refresh of persisted session failed", "error", err)
			s.becomeAnonymous(true)
			return nil
		}
	} else {
		s.mu.Lock()
		s.tokens = tokens
		s.mu.Unlock()
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.log.Warn("profile fetch failed during init", "error", err)
		s.becomeAnonymous(true)
		return nil
	}

	s.mu.Lock()
	s.tokens.User = user
	s.state = StateAuthenticated
	s.proactiveFailures = 0
	tokensCopy := *s.tokens
	s.mu.Unlock()

	s.store.Save(&tokensCopy)
	s.scheduleRefresh(tokensCopy.AccessToken)
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*model.User, error) {
	return s.authenticate(ctx, "/auth/login", map[string]string{
		"email": email, "password": password,
	})
}

func (s *Session) Signup(ctx context.Context, email, username, password string) (*model.User, error) {
	return s.authenticate(ctx, "/auth/signup", map[string]string{
		"email": email, "username": username, "password": password,
	})
}

func (s *Session) authenticate(ctx context.Context, path string, payload map[string]string) (*model.User, error) {
	tokens, err := s.tokenCall(ctx, path, payload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	user, err := s.fetchProfile(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tokens.User = user
	s.state = StateAuthenticated
	s.proactiveFailures = 0
	tokensCopy := *s.tokens
	s.mu.Unlock()

	if err := s.store.Save(&tokensCopy); err != nil {
		s.log.Error("failed to persist tokens", "error", err)
	}
	s.events.Send(Event{Type: EventTokens, Tokens: &tokensCopy})
	s.scheduleRefresh(tokensCopy.AccessToken)
	return user, nil
}

// Logout notifies the server best-effort, clears local state and tells every
// listener the session is gone.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	token := ""
	if s.tokens != nil {
		token = s.tokens.AccessToken
	}
	s.mu.Unlock()

	if token != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			if resp, err := s.httpClient.Do(req); err == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}
	}

	s.becomeAnonymous(true)
	s.events.Send(Event{Type: EventLogout})
}

// Refresh rotates the credentials, coordinating with every other caller that
// shares the store:
//   - the caller that wins the refresh slot performs the network rotation,
//     persists, releases the slot and broadcasts the new tokens
//   - a caller that finds the slot taken waits (bounded, polled) and then
//     re-reads the store, assuming the owner completed the rotation
//
// Returns the fresh access token.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	acquired, err := s.store.AcquireRefreshSlot()
	if err != nil {
		return "", err
	}
	if !acquired {
		return s.waitForOtherRefresh(ctx)
	}

	s.mu.Lock()
	prevState := s.state
	s.state = StateRefreshing
	var refreshToken string
	var user *model.User
	if s.tokens != nil {
		refreshToken = s.tokens.RefreshToken
		user = s.tokens.User
	}
	s.mu.Unlock()

	release := func() {
		if err := s.store.ReleaseRefreshSlot(); err != nil {
			s.log.Error("failed to release refresh slot", "error", err)
		}
	}

	if refreshToken == "" {
		release()
		s.mu.Lock()
		s.state = prevState
		s.mu.Unlock()
		return "", ErrNoRefreshToken
	}

	tokens, err := s.tokenCall(ctx, "/auth/refresh_mobile", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		release()
		s.mu.Lock()
		s.state = prevState
		s.mu.Unlock()
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	tokens.User = user

	s.mu.Lock()
	s.tokens = tokens
	s.state = StateAuthenticated
	tokensCopy := *tokens
	s.mu.Unlock()

	if err := s.store.Save(&tokensCopy); err != nil {
		s.log.Error("failed to persist rotated tokens", "error", err)
	}
	release()

	s.events.Send(Event{Type: EventTokens, Tokens: &tokensCopy})
	s.scheduleRefresh(tokensCopy.AccessToken)
	return tokensCopy.AccessToken, nil
}

func (s *Session) waitForOtherRefresh(ctx context.Context) (string, error) {
	deadline := time.Now().Add(s.opts.RefreshWaitTimeout)
	for time.Now().Before(deadline) {
		inProgress, err := s.store.RefreshInProgress()
		if err != nil {
			return "", err
		}
		if !inProgress {
			tokens, err := s.store.Load()
			if err != nil {
				return "", err
			}
			if tokens == nil {
				// the other caller's refresh failed and cleared the session
				return "", ErrNotAuthenticated
			}
			s.adoptTokens(tokens)
			return tokens.AccessToken, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.opts.RefreshWaitPoll):
		}
	}
	return "", ErrRefreshTimeout
}

// adoptTokens installs tokens rotated by another execution context.
func (s *Session) adoptTokens(tokens *model.AuthTokens) {
	s.mu.Lock()
	if tokens.User == nil && s.tokens != nil {
		tokens.User = s.tokens.User
	}
	s.tokens = tokens
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.scheduleRefresh(tokens.AccessToken)
}

func (s *Session) becomeAnonymous(clearStore bool) {
	s.mu.Lock()
	s.tokens = nil
	s.state = StateAnonymous
	s.proactiveFailures = 0
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	s.mu.Unlock()

	if clearStore {
		if err := s.store.Clear(); err != nil {
			s.log.Error("failed to clear token store", "error", err)
		}
	}
}

// scheduleRefresh arms the proactive refresh timer at exp minus the buffer.
// A deadline already in the past fires on the next tick instead of
// synchronously, and a token without an exp claim refreshes on the fixed
// fallback period.
func (s *Session) scheduleRefresh(accessToken string) {
	delay := s.opts.FallbackRefreshAfter
	if exp, ok := TokenExpiry(accessToken); ok {
		delay = time.Until(exp) - s.opts.RefreshBuffer
		if delay < 0 {
			delay = 0
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}
	s.refreshTimer = time.AfterFunc(delay, s.proactiveRefresh)
	s.log.Debug("proactive refresh scheduled", "in", delay.String())
}

func (s *Session) proactiveRefresh() {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.RefreshWaitTimeout*2)
	defer cancel()

	if _, err := s.Refresh(ctx); err != nil {
		s.mu.Lock()
		s.proactiveFailures++
		failures := s.proactiveFailures
		max := s.opts.MaxProactiveFailures
		s.mu.Unlock()

		s.log.Warn("proactive refresh failed", "error", err, "consecutive_failures", failures)

		if max > 0 && failures >= max {
			s.becomeAnonymous(true)
			s.events.Send(Event{Type: EventLogout})
			return
		}
		s.mu.Lock()
		if !s.closed {
			s.refreshTimer = time.AfterFunc(proactiveRetryDelay, s.proactiveRefresh)
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.proactiveFailures = 0
	s.mu.Unlock()
}

func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
		s.refreshTimer = nil
	}
	s.mu.Unlock()
}

func (s *Session) tokenCall(ctx context.Context, path string, payload map[string]string) (*model.AuthTokens, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// ask for the rotated refresh token in the response body
	req.Header.Set(constants.ClientTypeHeader, constants.ClientTypeNative)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.ParseAPIError(resp.StatusCode, data)
	}

	var tokens model.AuthTokens
	if err := sonic.Unmarshal(data, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("no access token in %s response", path)
	}
	return &tokens, nil
}

func (s *Session) fetchProfile(ctx context.Context) (*model.User, error) {
	s.mu.Lock()
	token := ""
	if s.tokens != nil {
		token = s.tokens.AccessToken
	}
	s.mu.Unlock()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/user/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.ParseAPIError(resp.StatusCode, data)
	}

	var user model.User
	if err := sonic.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
