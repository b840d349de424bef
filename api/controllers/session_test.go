package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/nostrapizza/storefront-backend/pkg/auth"
	"github.com/nostrapizza/storefront-backend/pkg/auth/session"
	"github.com/nostrapizza/storefront-backend/pkg/config"
)

type rotatorStub struct {
	newAccessID string
	newToken    string
	err         error

	oldAccessID string
	provided    string
}

func (s *rotatorStub) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	s.oldAccessID = oldAccessID
	s.provided = provided
	if s.err != nil {
		return "", "", s.err
	}
	return s.newAccessID, s.newToken, nil
}

func refreshConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "refresh-secret", Issuer: "issuer", ExpirationMinutes: 15}
}

func refreshRequestWithToken(token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthRefreshAcceptsExpiredAccessToken(t *testing.T) {
	cfg := refreshConfig()
	accessID := session.NewAccessID()

	// Minted two hours in the past, well beyond the 15 minute expiry.
	expired, err := pkgauth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	rotator := &rotatorStub{newAccessID: session.NewAccessID(), newToken: "fresh-refresh-token"}
	handler := AuthRefresh(rotator, cfg, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, refreshRequestWithToken(expired, `{"refresh_token":"old-refresh-token"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if rotator.oldAccessID != accessID {
		t.Fatalf("expected rotation keyed by jti %s, got %s", accessID, rotator.oldAccessID)
	}
	if rotator.provided != "old-refresh-token" {
		t.Fatalf("unexpected provided token: %s", rotator.provided)
	}

	var envelope struct {
		Data refreshResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RefreshToken != "fresh-refresh-token" {
		t.Fatalf("unexpected refresh token: %s", envelope.Data.RefreshToken)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatal("expected a newly minted access token")
	}
}

func TestAuthRefreshRejectsInvalidRefreshToken(t *testing.T) {
	cfg := refreshConfig()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := AuthRefresh(&rotatorStub{err: session.ErrInvalidRefreshToken}, cfg, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, refreshRequestWithToken(token, `{"refresh_token":"stolen"}`))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRefreshRequiresRefreshToken(t *testing.T) {
	cfg := refreshConfig()
	handler := AuthRefresh(&rotatorStub{}, cfg, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, refreshRequestWithToken("", `{}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRefreshRequiresBearerToken(t *testing.T) {
	cfg := refreshConfig()
	handler := AuthRefresh(&rotatorStub{}, cfg, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, refreshRequestWithToken("", `{"refresh_token":"whatever"}`))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
