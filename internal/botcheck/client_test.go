package botcheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantPass bool
	}{
		{"success", http.StatusOK, `{"success": true}`, true},
		{"rejected token", http.StatusOK, `{"success": false, "error-codes": ["invalid-input-response"]}`, false},
		{"server error fails closed", http.StatusInternalServerError, `oops`, false},
		{"garbage body fails closed", http.StatusOK, `not json`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotToken, gotIP string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("failed to parse form: %v", err)
				}
				gotToken = r.PostForm.Get("response")
				gotIP = r.PostForm.Get("remoteip")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "test-secret", 2*time.Second, discardLogger())
			err := client.Verify(context.Background(), "tok-123", "41.111.1.2")

			if tc.wantPass && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.wantPass {
				if !errors.Is(err, ErrVerificationFailed) {
					t.Fatalf("expected ErrVerificationFailed, got %v", err)
				}
				return
			}
			if gotToken != "tok-123" {
				t.Errorf("token = %q, want tok-123", gotToken)
			}
			if gotIP != "41.111.1.2" {
				t.Errorf("remoteip = %q, want 41.111.1.2", gotIP)
			}
		})
	}
}

func TestVerifyUnreachableEndpointFailsClosed(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test-secret", 200*time.Millisecond, discardLogger())
	if err := client.Verify(context.Background(), "tok", "1.2.3.4"); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifyEmptyToken(t *testing.T) {
	client := NewClient("http://example.invalid", "test-secret", time.Second, discardLogger())
	if err := client.Verify(context.Background(), "  ", "1.2.3.4"); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifySkippedWithoutSecret(t *testing.T) {
	client := NewClient("http://example.invalid", "", time.Second, discardLogger())
	if client.Enabled() {
		t.Error("expected verification disabled")
	}
	if err := client.Verify(context.Background(), "anything", "1.2.3.4"); err != nil {
		t.Fatalf("expected pass-through, got %v", err)
	}
}
