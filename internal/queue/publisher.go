package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/learning-platform/internal/logging"
    "github.com/iliyamo/learning-platform/internal/model"
    "github.com/iliyamo/learning-platform/internal/service"
)

// Publisher sends JSON messages to durable queues on the default exchange.
// Each publish opens its own connection, so a broker outage costs one
// failed dial and never a stuck channel.
//
// Publisher implements service.Auditor and service.ResetNotifier.  When a
// publish fails the event goes to the fallback instead of being lost.
type Publisher struct {
    URL           string
    Log           logging.Logger
    AuditFallback service.Auditor
    ResetFallback service.ResetNotifier
    Timeout       time.Duration

    dial func(url string) (channel, func(), error)
}

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

func NewPublisher(url string, log logging.Logger, auditFallback service.Auditor, resetFallback service.ResetNotifier) *Publisher {
    return &Publisher{URL: url, Log: log, AuditFallback: auditFallback, ResetFallback: resetFallback, Timeout: 3 * time.Second}
}

func dialAMQP(url string) (channel, func(), error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("channel open: %w", err)
    }
    return ch, func() { _ = ch.Close(); _ = conn.Close() }, nil
}

// Publish marshals v and sends it as a persistent message to queue.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("marshal: %w", err)
    }
    dial := p.dial
    if dial == nil {
        dial = dialAMQP
    }
    ch, closeFn, err := dial(p.URL)
    if err != nil {
        return err
    }
    defer closeFn()

    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if p.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, p.Timeout)
        defer cancel()
    }
    err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
    if err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

func (p *Publisher) Record(ctx context.Context, e model.AuditEntry) {
    ev := AuditEvent{UserID: e.UserID, Action: e.Action, Details: e.Details, IP: e.IP, CreatedAt: e.CreatedAt}
    if err := p.Publish(ctx, AuditQueue, ev); err != nil {
        p.Log.Warn(ctx, "audit publish failed, writing directly", "action", e.Action, "err", err)
        if p.AuditFallback != nil {
            p.AuditFallback.Record(ctx, e)
        }
    }
}

func (p *Publisher) ResetCodeIssued(ctx context.Context, email, code string, expiresAt time.Time) {
    ev := ResetCodeEvent{Email: email, Code: code, ExpiresAt: expiresAt, IssuedAt: time.Now().UTC()}
    if err := p.Publish(ctx, ResetCodeQueue, ev); err != nil {
        p.Log.Warn(ctx, "reset code publish failed", "email", email, "err", err)
        if p.ResetFallback != nil {
            p.ResetFallback.ResetCodeIssued(ctx, email, code, expiresAt)
        }
    }
}
