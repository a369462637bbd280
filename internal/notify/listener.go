package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/whetstone/internal/trainer"
)

// UnlockHandler reacts to one unlock event.
type UnlockHandler func(event trainer.UnlockEvent)

// Listener consumes unlock events and dispatches them to a handler.
type Listener struct {
	conn       *Connection
	handler    UnlockHandler
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewListener creates an unlock event listener.
func NewListener(conn *Connection, handler UnlockHandler) *Listener {
	return &Listener{conn: conn, handler: handler}
}

// Start begins consuming unlock events.
func (l *Listener) Start(ctx context.Context) error {
	ctx, l.cancelFunc = context.WithCancel(ctx)

	ch := l.conn.Channel()

	msgs, err := ch.Consume(
		UnlockQueueName,
		"",    // consumer tag (auto-generated)
		true,  // auto-ack, unlock toasts are fire-and-forget
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start unlock consumer: %w", err)
	}

	l.wg.Add(1)
	go l.consume(ctx, msgs)

	return nil
}

func (l *Listener) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer l.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var event trainer.UnlockEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				slog.Error("failed to unmarshal unlock event", "error", err)
				continue
			}

			l.handler(event)
		}
	}
}

// Stop stops the listener.
func (l *Listener) Stop() {
	if l.cancelFunc != nil {
		l.cancelFunc()
	}
	l.wg.Wait()
}
