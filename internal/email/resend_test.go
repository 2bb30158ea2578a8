package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testResendSender(srv *httptest.Server) *ResendSender {
	return &ResendSender{
		apiKey:    "re_test_key",
		fromName:  "Equipe Comercial",
		fromEmail: "contato@exemplo.com.br",
		client:    &http.Client{Timeout: time.Second},
		endpoint:  srv.URL,
	}
}

func TestResendSendReturnsProviderMessageID(t *testing.T) {
	var got resendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test_key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(resendEmailResponse{ID: "msg_123"})
	}))
	defer srv.Close()

	sender := testResendSender(srv)
	id, err := sender.Send(context.Background(), Message{
		To:       "ana@empresa.com.br",
		Subject:  "Proposta",
		HTMLBody: "<p>Olá</p>",
		Headers:  map[string]string{"List-Unsubscribe": "<mailto:sair@exemplo.com.br>"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("expected provider message ID msg_123, got %q", id)
	}

	if got.From != "Equipe Comercial <contato@exemplo.com.br>" {
		t.Fatalf("unexpected from %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "ana@empresa.com.br" {
		t.Fatalf("unexpected recipients %v", got.To)
	}
	if got.Headers["List-Unsubscribe"] == "" {
		t.Fatal("expected custom header forwarded to the provider")
	}
}

func TestResendSendClassifiesServerErrorTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testResendSender(srv).Send(context.Background(), Message{To: "a@b.com"})

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}
	if !sendErr.Transient || sendErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected transient 502, got %+v", sendErr)
	}
	if !IsTransient(err) {
		t.Fatal("IsTransient should agree with the classification")
	}
}

func TestResendSendClassifiesRateLimitTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testResendSender(srv).Send(context.Background(), Message{To: "a@b.com"})
	if !IsTransient(err) {
		t.Fatalf("429 must be retryable, got %v", err)
	}
}

func TestResendSendClassifiesValidationErrorTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid to address"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := testResendSender(srv).Send(context.Background(), Message{To: "not-an-address"})

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}
	if sendErr.Transient {
		t.Fatal("a provider validation rejection must not be retried")
	}
	if IsTransient(err) {
		t.Fatal("IsTransient should agree with the classification")
	}
}

func TestResendSendTreatsConnectionFailureTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := testResendSender(srv).Send(context.Background(), Message{To: "a@b.com"})
	if err == nil {
		t.Fatal("expected connection failure")
	}
	if !IsTransient(err) {
		t.Fatalf("network failures must be retryable, got %v", err)
	}
}

func TestIsTransientNilError(t *testing.T) {
	if IsTransient(nil) {
		t.Fatal("nil error is not transient")
	}
}
