package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DeeipChheda/warmup-master-main/internal/domain"
	"github.com/DeeipChheda/warmup-master-main/internal/observability"
	"github.com/DeeipChheda/warmup-master-main/internal/queue"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWorkerServiceValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewWorkerService(nil, &fakeDispatcher{}, 1, nil); err == nil {
		t.Fatal("expected error for nil consumer")
	}
	if _, err := NewWorkerService(&fakeConsumer{}, nil, 1, nil); err == nil {
		t.Fatal("expected error for nil dispatcher")
	}

	svc, err := NewWorkerService(&fakeConsumer{}, &fakeDispatcher{}, 0, nil)
	if err != nil {
		t.Fatalf("NewWorkerService() error = %v", err)
	}
	if svc.concurrency != 1 {
		t.Fatalf("concurrency = %d, want 1", svc.concurrency)
	}
}

func TestWorkerServiceProcessMessage(t *testing.T) {
	t.Parallel()

	validMsg := queue.CampaignMessage{CampaignID: "c1", TenantID: "t1", CorrelationID: "corr-1"}

	tests := []struct {
		name         string
		msg          queue.CampaignMessage
		dispatchFn   func(ctx context.Context, campaignID string) (*DispatchReport, error)
		wantErr      bool
		wantDispatch bool
	}{
		{
			name:    "invalid message is dropped",
			msg:     queue.CampaignMessage{TenantID: "t1"},
			wantErr: false,
		},
		{
			name:         "dispatched",
			msg:          validMsg,
			wantDispatch: true,
		},
		{
			name: "missing campaign is acked",
			msg:  validMsg,
			dispatchFn: func(ctx context.Context, campaignID string) (*DispatchReport, error) {
				return nil, domain.ErrNotFound
			},
			wantDispatch: true,
		},
		{
			name: "infrastructure failure is returned",
			msg:  validMsg,
			dispatchFn: func(ctx context.Context, campaignID string) (*DispatchReport, error) {
				return nil, errors.New("db down")
			},
			wantErr:      true,
			wantDispatch: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			dispatcher := &fakeDispatcher{
				dispatchFn: func(ctx context.Context, campaignID string) (*DispatchReport, error) {
					called = true
					if id, ok := observability.CorrelationIDFromContext(ctx); !ok || id != "corr-1" {
						t.Errorf("correlation id = %q, want corr-1", id)
					}
					if id, ok := observability.TenantIDFromContext(ctx); !ok || id != "t1" {
						t.Errorf("tenant id = %q, want t1", id)
					}
					if tt.dispatchFn != nil {
						return tt.dispatchFn(ctx, campaignID)
					}
					return &DispatchReport{CampaignID: campaignID, Status: domain.CampaignCompleted}, nil
				},
			}

			svc, err := NewWorkerService(&fakeConsumer{}, dispatcher, 1, zap.NewNop())
			if err != nil {
				t.Fatalf("NewWorkerService() error = %v", err)
			}

			err = svc.processMessage(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("processMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if called != tt.wantDispatch {
				t.Fatalf("dispatch called = %v, want %v", called, tt.wantDispatch)
			}
		})
	}
}

func TestWorkerServiceProcessMessageLogsReport(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := &fakeDispatcher{
		dispatchFn: func(ctx context.Context, campaignID string) (*DispatchReport, error) {
			return &DispatchReport{
				CampaignID: campaignID,
				Status:     domain.CampaignPaused,
				Sent:       []string{"a@example.com"},
				Unsent:     []string{"b@example.com", "c@example.com"},
				StopReason: StopQuota,
			}, nil
		},
	}
	svc, err := NewWorkerService(&fakeConsumer{}, dispatcher, 1, zap.New(core))
	if err != nil {
		t.Fatalf("NewWorkerService() error = %v", err)
	}

	msg := queue.CampaignMessage{CampaignID: "c1", TenantID: "t1", CorrelationID: "corr-1"}
	if err := svc.processMessage(context.Background(), msg); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}

	entries := logs.FilterMessage("campaign message processed").All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["correlationId"] != "corr-1" || fields["status"] != "paused" {
		t.Fatalf("fields = %v", fields)
	}
	if fields["sent"] != int64(1) || fields["unsent"] != int64(2) {
		t.Fatalf("counts = sent %v unsent %v", fields["sent"], fields["unsent"])
	}
}

func TestWorkerServiceStartRunsConsumers(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		queues []string
	)
	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, handler queue.MessageHandler) error {
			mu.Lock()
			queues = append(queues, queueName)
			mu.Unlock()
			return handler(ctx, queue.CampaignMessage{CampaignID: "c1", TenantID: "t1"})
		},
	}

	var dispatched int
	dispatcher := &fakeDispatcher{
		dispatchFn: func(ctx context.Context, campaignID string) (*DispatchReport, error) {
			mu.Lock()
			dispatched++
			mu.Unlock()
			return &DispatchReport{CampaignID: campaignID, Status: domain.CampaignCompleted}, nil
		},
	}

	svc, err := NewWorkerService(consumer, dispatcher, 3, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkerService() error = %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(queues) != 3 || dispatched != 3 {
		t.Fatalf("consumers = %d dispatched = %d, want 3/3", len(queues), dispatched)
	}
	for _, q := range queues {
		if q != queue.DispatchQueue {
			t.Fatalf("queue = %q, want %q", q, queue.DispatchQueue)
		}
	}
}

func TestWorkerServiceStartPropagatesConsumerError(t *testing.T) {
	t.Parallel()

	consumer := &fakeConsumer{
		consumeFn: func(ctx context.Context, queueName string, handler queue.MessageHandler) error {
			return errors.New("channel closed")
		},
	}
	svc, err := NewWorkerService(consumer, &fakeDispatcher{}, 2, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkerService() error = %v", err)
	}
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected consumer error from Start")
	}
}
