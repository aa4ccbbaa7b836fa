package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

func newTestManager(now time.Time) *TokenManager {
	m := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func testUser() models.User {
	return models.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	pair, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens populated")
	}
	if !pair.AccessExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access expiry %v", pair.AccessExpiresAt)
	}

	claims, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	userID, err := m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %s", userID)
	}
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	m := newTestManager(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	pair, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := m.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredTokens(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(issuedAt)

	pair, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	if _, err := m.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// The refresh token is still inside its longer window.
	if _, err := m.VerifyRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("refresh token should still verify: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(25 * time.Hour) }
	if _, err := m.VerifyRefresh(pair.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := newTestManager(time.Now())

	if _, err := m.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssueRequiresUserID(t *testing.T) {
	m := newTestManager(time.Now())

	if _, err := m.Issue(models.User{}); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}
