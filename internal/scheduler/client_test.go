package scheduler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

func newMiniredisClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()

	mr := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: mr.Addr()}

	client := &Client{client: asynq.NewClient(opt), queue: "dispatch"}
	t.Cleanup(func() { _ = client.Close() })

	inspector := asynq.NewInspector(opt)
	t.Cleanup(func() { _ = inspector.Close() })

	return client, inspector
}

func TestEnqueueCampaignDispatchQueuesTask(t *testing.T) {
	client, inspector := newMiniredisClient(t)

	campaignID := "3e9f0f1a-6f9e-4b44-9f51-2b7a6d2f8c11"
	if err := client.EnqueueCampaignDispatch(context.Background(), campaignID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	pending, err := inspector.ListPendingTasks("dispatch")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending task, got %d", len(pending))
	}

	task := pending[0]
	if task.Type != TaskCampaignDispatch {
		t.Fatalf("unexpected task type %q", task.Type)
	}
	var payload CampaignDispatchPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.CampaignID != campaignID {
		t.Fatalf("expected campaign %s, got %s", campaignID, payload.CampaignID)
	}
	if task.MaxRetry != 2 {
		t.Fatalf("expected max retry 2, got %d", task.MaxRetry)
	}
}

func TestEnqueueCampaignDispatchNilClientIsNoop(t *testing.T) {
	var client *Client
	if err := client.EnqueueCampaignDispatch(context.Background(), "any"); err != nil {
		t.Fatalf("nil client must be a no-op, got %v", err)
	}
}

func TestRedisClientOptParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig != nil {
		t.Fatal("plain redis URL must not get a TLS config")
	}
}

func TestRedisClientOptInsecureTLS(t *testing.T) {
	opt, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}
}

func TestRedisClientOptRejectsMalformedURL(t *testing.T) {
	if _, err := redisClientOpt("not a url", false); err == nil {
		t.Fatal("expected parse error")
	}
}
