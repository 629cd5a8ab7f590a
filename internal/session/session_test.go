package session

import (
	"context"
	"testing"
	"time"

	"github.com/caregate/caregate/internal/roles"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw  string
		want roles.ID
	}{
		{"cluster_head", roles.ClusterHead},
		{"cluster-head", roles.ClusterHead},
		{"Cluster_Head", roles.ClusterHead},
		{" user ", roles.Patient},
		{"SUPER_ADMIN", roles.SuperAdmin},
		{"executive_admin", roles.ExecutiveAdmin},
		{"doctor", roles.Doctor},
	}
	for _, tt := range tests {
		if got := NormalizeRole(tt.raw); got != tt.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	s, err := m.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatal("fresh session must not be authenticated")
	}

	if err := m.SetTokens(ctx, s, "tok1", ""); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	if err := m.SetIdentity(ctx, s, "cluster_head", "9123456789"); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if !s.IsAuthenticated() {
		t.Fatal("session with access token must be authenticated")
	}

	// Changes must be visible through a fresh load, not just in memory.
	loaded, err := m.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "tok1" {
		t.Errorf("loaded access token = %q", loaded.AccessToken)
	}
	if loaded.Role != roles.ClusterHead {
		t.Errorf("loaded role = %q, want cluster-head", loaded.Role)
	}
	if loaded.Identifier != "9123456789" {
		t.Errorf("loaded identifier = %q", loaded.Identifier)
	}
}

func TestClearTokensIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	s, _ := m.Begin(ctx)
	m.SetTokens(ctx, s, "tok", "refresh")
	m.SetIdentity(ctx, s, "nurse", "9000000000")

	for i := 0; i < 2; i++ {
		if err := m.ClearTokens(ctx, s); err != nil {
			t.Fatalf("ClearTokens call %d: %v", i+1, err)
		}
		if s.IsAuthenticated() {
			t.Fatalf("ClearTokens call %d left session authenticated", i+1)
		}
	}

	loaded, err := m.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "" || loaded.RefreshToken != "" || loaded.Role != "" {
		t.Errorf("cleared session still carries state: %+v", loaded)
	}
}

func TestPendingStateClearedWithTokens(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	s, _ := m.Begin(ctx)
	m.SetPendingLogin(ctx, s, &PendingLogin{Phone: "9876543210", CountryCode: "+91", RequestedAt: time.Now()})
	m.SetPendingSignup(ctx, s, &PendingSignup{Role: roles.Nurse, Phone: "9", CountryCode: "+91"})
	m.ClearTokens(ctx, s)

	loaded, _ := m.Load(ctx, s.ID)
	if loaded.Login != nil || loaded.Signup != nil {
		t.Error("pending flow state must not survive a session clear")
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := &Session{ID: "a", AccessToken: "tok"}
	st.Save(ctx, s)

	got, _ := st.Get(ctx, "a")
	got.AccessToken = "tampered"

	again, _ := st.Get(ctx, "a")
	if again.AccessToken != "tok" {
		t.Error("mutating a returned session leaked into the store")
	}

	if _, err := st.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("missing session error = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing session must not fail: %v", err)
	}
}

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := NewCookieCodec("test-secret", "caregate_session", time.Hour)

	value, err := codec.Issue("session-123")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := codec.Parse(value)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != "session-123" {
		t.Errorf("parsed session ID = %q", id)
	}
}

func TestCookieCodecRejectsForgery(t *testing.T) {
	codec := NewCookieCodec("test-secret", "caregate_session", time.Hour)
	other := NewCookieCodec("other-secret", "caregate_session", time.Hour)

	value, _ := other.Issue("session-123")
	if _, err := codec.Parse(value); err == nil {
		t.Error("cookie signed with a different secret must not parse")
	}
	if _, err := codec.Parse(""); err == nil {
		t.Error("empty cookie must not parse")
	}
	if _, err := codec.Parse("not-a-token"); err == nil {
		t.Error("garbage cookie must not parse")
	}
}
