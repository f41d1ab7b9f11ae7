package session

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestIssue_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Issue("cv37rs3pp9olc6atsptg", time.Minute)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	// header.payload.signature
	if got := strings.Count(token, "."); got != 2 {
		t.Errorf("Issue() token has %d dots, want 2", got)
	}
}

func TestValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Issue("session-abc", time.Hour)

	got, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "session-abc" {
		t.Errorf("Validate() = %q, want %q", got, "session-abc")
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!")

	good, _ := ts.Issue("s1", time.Hour)
	expired, _ := ts.Issue("s1", -time.Second)
	foreign, _ := other.Issue("s1", time.Hour)
	noSubject, _ := ts.Issue("", time.Hour)

	tests := map[string]string{
		"expired":    expired,
		"tampered":   good[:len(good)-3] + "xxx",
		"wrong key":  foreign,
		"empty":      "",
		"garbage":    "not.a.jwt.token",
		"no subject": noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ts.Validate(token); err == nil {
				t.Errorf("Validate() accepted a %s token", name)
			}
		})
	}
}
