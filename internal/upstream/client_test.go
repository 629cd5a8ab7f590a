package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caregate/caregate/internal/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Manager, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mgr := session.NewManager(session.NewMemoryStore())
	sess, err := mgr.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin session: %v", err)
	}
	return NewClient(srv.URL, 5*time.Second, mgr), mgr, sess
}

func TestDoAttachesBearerHeader(t *testing.T) {
	var gotAuth string
	client, mgr, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	mgr.SetTokens(context.Background(), sess, "tok1", "")

	if _, err := client.Do(context.Background(), sess, "/organization/all", Options{}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer tok1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok1")
	}
}

func TestDoAnonymousSkipsHeader(t *testing.T) {
	var gotAuth string
	client, mgr, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	mgr.SetTokens(context.Background(), sess, "tok1", "")

	if _, err := client.Do(context.Background(), sess, "/auth/user/request-otp", Options{Method: http.MethodPost, Anonymous: true}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("anonymous request sent Authorization = %q", gotAuth)
	}
}

func TestDoExtractsErrorMessage(t *testing.T) {
	client, _, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"phone already registered"}`))
	}))

	_, err := client.Do(context.Background(), sess, "/nurse/create", Options{Method: http.MethodPost})
	ue, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if ue.Status != http.StatusConflict {
		t.Errorf("status = %d", ue.Status)
	}
	if ue.Message != "phone already registered" {
		t.Errorf("message = %q", ue.Message)
	}
	if len(ue.Body) == 0 {
		t.Error("raw body not retained on error")
	}
}

func TestDoFallbackMessage(t *testing.T) {
	client, _, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>boom</html>`))
	}))

	_, err := client.Do(context.Background(), sess, "/report/all", Options{})
	ue, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if ue.Message != "request failed" {
		t.Errorf("message = %q, want generic fallback", ue.Message)
	}
}

func TestDoNetworkErrorSyntheticStatus(t *testing.T) {
	mgr := session.NewManager(session.NewMemoryStore())
	sess, _ := mgr.Begin(context.Background())
	// Point at a server that is already gone.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, mgr)
	_, err := client.Do(context.Background(), sess, "/organization/all", Options{})
	ue, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if ue.Status != StatusNetwork {
		t.Errorf("status = %d, want synthetic %d", ue.Status, StatusNetwork)
	}
}

func TestDoUnauthorizedClearsSession(t *testing.T) {
	client, mgr, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	ctx := context.Background()
	mgr.SetTokens(ctx, sess, "stale", "refresh")
	mgr.SetIdentity(ctx, sess, "nurse", "9000000000")

	_, err := client.Do(ctx, sess, "/device/all", Options{})
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if sess.IsAuthenticated() {
		t.Error("session still authenticated after 401")
	}
	loaded, _ := mgr.Load(ctx, sess.ID)
	if loaded.IsAuthenticated() || loaded.Role != "" {
		t.Error("persisted session not cleared after 401")
	}
}

func TestPhoneWireFormat(t *testing.T) {
	data, err := json.Marshal(Phone{CountryCode: "+91", Number: "9876543210"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["+91","9876543210"]` {
		t.Errorf("phone wire form = %s", data)
	}

	var p Phone
	if err := json.Unmarshal([]byte(`["+1","5550100"]`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.CountryCode != "+1" || p.Number != "5550100" {
		t.Errorf("phone = %+v", p)
	}
}

func TestDecodeList(t *testing.T) {
	bare, err := DecodeList([]byte(`[{"id":"1"},{"id":"2"},{"id":"3"}]`), "technicians")
	if err != nil {
		t.Fatalf("bare array: %v", err)
	}
	if len(bare) != 3 {
		t.Errorf("bare array items = %d, want 3", len(bare))
	}

	wrapped, err := DecodeList([]byte(`{"technicians":[{"id":"1"}]}`), "technicians")
	if err != nil {
		t.Fatalf("wrapped array: %v", err)
	}
	if len(wrapped) != 1 {
		t.Errorf("wrapped items = %d, want 1", len(wrapped))
	}

	if _, err := DecodeList([]byte(`{"other":[]}`), "technicians"); err == nil {
		t.Error("missing key must fail")
	}
	if _, err := DecodeList([]byte(`"nope"`), "technicians"); err == nil {
		t.Error("non-list body must fail")
	}
}
