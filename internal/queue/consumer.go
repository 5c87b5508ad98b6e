package queue

import (
    "context"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/learning-platform/internal/logging"
)

// Handler processes one message body.  A returned error rejects the
// delivery without requeueing.
type Handler func(ctx context.Context, body []byte) error

// Consumer keeps a subscription on one durable queue alive across broker
// restarts.
type Consumer struct {
    URL      string
    Queue    string
    Handle   Handler
    Log      logging.Logger
    Prefetch int
}

// Run dials, consumes and redials with exponential backoff (1s up to 30s)
// until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
    log := c.Log.With("queue", c.Queue)
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Warn(ctx, "consumer dial failed", "err", err, "retry_in", backoff.String())
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn(ctx, "consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, log logging.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    prefetch := c.Prefetch
    if prefetch <= 0 {
        prefetch = 50
    }
    if err := ch.Qos(prefetch, 0, false); err != nil {
        log.Warn(ctx, "set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            c.deliver(ctx, d, log)
        }
    }
}

// acknowledger is the subset of amqp.Delivery the dispatch step needs.
type acknowledger interface {
    Ack(multiple bool) error
    Nack(multiple, requeue bool) error
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery, log logging.Logger) {
    dispatch(ctx, c.Handle, d.Body, d, log)
}

func dispatch(ctx context.Context, h Handler, body []byte, ack acknowledger, log logging.Logger) {
    if err := h(ctx, body); err != nil {
        log.Error(ctx, "handle message failed", "err", err)
        _ = ack.Nack(false, false)
        return
    }
    _ = ack.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
