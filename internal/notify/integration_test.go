//go:build integration

package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/whetstone/internal/notify"
	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := notify.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := notify.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_PublishUnlockEvent(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := notify.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	event := trainer.UnlockEvent{
		Kind:       "badge",
		ID:         "streak_3",
		Name:       "Getting Started",
		Rarity:     "common",
		UnlockedAt: time.Now(),
	}

	if err := conn.PublishJSON(ctx, notify.UnlockQueueName, event); err != nil {
		t.Fatalf("failed to publish unlock event: %v", err)
	}

	ch := conn.Channel()
	q, err := ch.QueueInspect(notify.UnlockQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}
	if q.Messages != 1 {
		t.Errorf("expected 1 message in queue, got %d", q.Messages)
	}
}

func TestIntegration_ListenerReceivesEvent(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := notify.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	received := make(chan trainer.UnlockEvent, 1)
	listener := notify.NewListener(conn, func(event trainer.UnlockEvent) {
		received <- event
	})

	ctx := context.Background()
	if err := listener.Start(ctx); err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}
	defer listener.Stop()

	event := trainer.UnlockEvent{Kind: "title", ID: "title_newcomer", Name: "Newcomer Reviewer"}
	if err := conn.PublishJSON(ctx, notify.UnlockQueueName, event); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	select {
	case got := <-received:
		if got.ID != "title_newcomer" {
			t.Errorf("expected title_newcomer, got %s", got.ID)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for unlock event")
	}
}
