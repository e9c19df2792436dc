package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func staticCredentials(id, token string) CredentialsFunc {
	return func(ctx context.Context) (string, string, error) {
		return id, token, nil
	}
}

func TestMetaClientSend(t *testing.T) {
	var gotPath string
	var gotBody metaPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"events_received": 1}`))
	}))
	defer srv.Close()

	client := NewMetaClient(staticCredentials("12345", "token-x"), time.Second)
	client.endpoint = srv.URL

	event := testEvent(EventPurchase)
	event.User.ClientIP = "41.111.1.2"
	if err := client.Send(context.Background(), event); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if !strings.Contains(gotPath, "12345") {
		t.Errorf("pixel id missing from path %q", gotPath)
	}
	if len(gotBody.Data) != 1 {
		t.Fatalf("expected 1 event, got %d", len(gotBody.Data))
	}
	sent := gotBody.Data[0]
	if sent.EventName != EventPurchase || sent.EventID != "evt-1" {
		t.Errorf("event = %+v", sent)
	}
	if sent.ActionSource != "website" {
		t.Errorf("action source = %q", sent.ActionSource)
	}
	if len(sent.UserData.Phones) != 1 || len(sent.UserData.Phones[0]) != 64 {
		t.Errorf("expected one hashed phone, got %v", sent.UserData.Phones)
	}
	if sent.CustomData.Currency != "DZD" {
		t.Errorf("currency = %q", sent.CustomData.Currency)
	}
}

func TestMetaClientNotConfigured(t *testing.T) {
	client := NewMetaClient(staticCredentials("", ""), time.Second)
	if err := client.Send(context.Background(), testEvent(EventPurchase)); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestMetaClientNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewMetaClient(staticCredentials("12345", "token-x"), time.Second)
	client.endpoint = srv.URL
	if err := client.Send(context.Background(), testEvent(EventPurchase)); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestTikTokClientSend(t *testing.T) {
	var gotToken string
	var gotBody tiktokPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("Access-Token")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"code": 0}`))
	}))
	defer srv.Close()

	client := NewTikTokClient(staticCredentials("PIXEL", "tt-token"), time.Second)
	client.endpoint = srv.URL

	if err := client.Send(context.Background(), testEvent(EventPurchase)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if gotToken != "tt-token" {
		t.Errorf("access token header = %q", gotToken)
	}
	if gotBody.EventSourceID != "PIXEL" || gotBody.EventSource != "web" {
		t.Errorf("payload = %+v", gotBody)
	}
	if len(gotBody.Data) != 1 || gotBody.Data[0].Event != EventPurchase {
		t.Errorf("data = %+v", gotBody.Data)
	}
	if len(gotBody.Data[0].User.Phone) != 64 {
		t.Errorf("expected hashed phone, got %q", gotBody.Data[0].User.Phone)
	}
}

func TestTikTokClientNotConfigured(t *testing.T) {
	client := NewTikTokClient(staticCredentials("PIXEL", ""), time.Second)
	if err := client.Send(context.Background(), testEvent(EventPurchase)); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
