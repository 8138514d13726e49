// Package vehicles talks to the SWM fleet API: authentication, live vehicle
// retrieval and status updates. The optimization core never sees this
// package; it receives plain vehicle slices.
package vehicles

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// Config carries the upstream connection settings. It is built once at
// startup and passed by reference; there is no package-level state.
type Config struct {
	BaseURL  string
	Username string
	Password string
}

// ConfigFromEnv reads the SWM_* environment variables.
func ConfigFromEnv() Config {
	base := os.Getenv("SWM_API_BASE_URL")
	if base == "" {
		base = "https://uat-swm-main-service.centralindia-01.azurewebsites.net"
	}
	return Config{
		BaseURL:  base,
		Username: os.Getenv("SWM_USERNAME"),
		Password: os.Getenv("SWM_PASSWORD"),
	}
}

// refreshLead refreshes tokens this long before their expiry.
const refreshLead = 5 * time.Minute

// TokenManager logs in against the SWM API and hands out a valid bearer
// token, refreshing shortly before expiry. Background refresh is an explicit
// goroutine bound to a context, not a daemon thread.
type TokenManager struct {
	cfg  Config
	http *http.Client

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewTokenManager(cfg Config) *TokenManager {
	return &TokenManager{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns a valid bearer token, logging in or refreshing as needed.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	tok := m.token
	fresh := tok != "" && (m.expiresAt.IsZero() || time.Until(m.expiresAt) > refreshLead)
	m.mu.RUnlock()
	if fresh {
		return tok, nil
	}
	if err := m.Refresh(ctx); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// loginResponse is the explicit schema mapping for the upstream login reply.
// The API has shipped the token under different field names over time; these
// are resolved here, once, at the input boundary.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	AuthToken   string `json:"authToken"`
	JWT         string `json:"jwt"`
	Data        *struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	} `json:"data"`
}

func (r loginResponse) token() string {
	for _, t := range []string{r.Token, r.AccessToken, r.AuthToken, r.JWT} {
		if t != "" {
			return t
		}
	}
	if r.Data != nil {
		if r.Data.Token != "" {
			return r.Data.Token
		}
		return r.Data.AccessToken
	}
	return ""
}

// Refresh performs a fresh login regardless of the cached token's state.
func (m *TokenManager) Refresh(ctx context.Context) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return errors.New("vehicles: SWM_USERNAME/SWM_PASSWORD not configured")
	}
	body, _ := json.Marshal(map[string]string{
		"loginId":  m.cfg.Username,
		"password": m.cfg.Password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("vehicles: login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vehicles: login failed with status %d", resp.StatusCode)
	}
	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("vehicles: decode login response: %w", err)
	}
	tok := lr.token()
	if tok == "" {
		return errors.New("vehicles: no token in login response")
	}

	m.mu.Lock()
	m.token = tok
	m.expiresAt = tokenExpiry(tok)
	m.mu.Unlock()
	return nil
}

// StartAutoRefresh keeps the token warm until the context is cancelled.
func (m *TokenManager) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Token(ctx); err != nil {
					log.Printf("vehicles: token refresh failed: %v", err)
				}
			}
		}
	}()
}

// tokenExpiry pulls the exp claim out of a JWT payload. A zero time means
// the expiry is unknown and the token is used until the server rejects it.
func tokenExpiry(token string) time.Time {
	parts := bytes.Split([]byte(token), []byte("."))
	if len(parts) != 3 {
		return time.Time{}
	}
	payload, err := base64.RawURLEncoding.DecodeString(string(parts[1]))
	if err != nil {
		return time.Time{}
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(claims.Exp, 0)
}
