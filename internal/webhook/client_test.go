package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendPostsContractPayload(t *testing.T) {
	var got Payload
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	raw, err := c.Send(context.Background(), Payload{
		Message:   "what is amoxicillin",
		Context:   "medicine-search",
		SessionID: "42",
		UserEmail: "pat@example.com",
		UserName:  "Pat",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(raw) != `{"result":"ok"}` {
		t.Errorf("body = %s", raw)
	}
	if got.Source != Source {
		t.Errorf("source = %q, want %q", got.Source, Source)
	}
	if got.Timestamp == "" {
		t.Error("timestamp not set")
	}
	if _, err := time.Parse(time.RFC3339, got.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", got.Timestamp, err)
	}
	if got.Message != "what is amoxicillin" || got.Context != "medicine-search" || got.SessionID != "42" {
		t.Errorf("payload fields lost: %+v", got)
	}
	if requestID == "" {
		t.Error("request id header not set")
	}
}

func TestSendClassifiesStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Send(context.Background(), Payload{Message: "hi"})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", statusErr.StatusCode)
	}
}

func TestSendTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := c.Send(context.Background(), Payload{Message: "hi"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not enforced promptly")
	}
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := NewClient(srv.URL, time.Second)
	_, err := c.Send(context.Background(), Payload{Message: "hi"})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

func TestSendNotConfigured(t *testing.T) {
	c := NewClient("", time.Second)
	if c.Configured() {
		t.Error("empty URL should report not configured")
	}
	if _, err := c.Send(context.Background(), Payload{Message: "hi"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
