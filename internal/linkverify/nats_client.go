package linkverify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docrender/internal/events"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/retry"
)

const (
	streamName     = "DOCRENDER_GAPS"
	statusBucket   = "docrender_passes"
	publishTimeout = 5 * time.Second
)

// transport is the subset of JetStream the Notifier needs.
type transport interface {
	Publish(ctx context.Context, subject string, data []byte) error
	PutStatus(ctx context.Context, passID string, data []byte) error
	Close() error
}

// NATSClient manages the NATS connection used for gap notifications.
type NATSClient struct {
	conn *nats.Conn
	js   jetstream.JetStream
	kv   jetstream.KeyValue
}

// NewNATSClient connects to url and makes sure the gap stream (covering
// subject and its children) and the pass status bucket exist.
func NewNATSClient(ctx context.Context, url, subject string) (*NATSClient, error) {
	conn, err := nats.Connect(url, nats.Name("docrender"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("nats_url", url).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &NATSClient{conn: conn, js: js}
	if err := client.init(ctx, subject); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS client initialized for gap notifications",
		"url", url,
		"subject", subject,
		"kv_bucket", statusBucket)
	return client, nil
}

func (c *NATSClient) init(ctx context.Context, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Unresolved references reported by docrender",
		Subjects:    []string{subject, subject + ".>"},
		MaxAge:      30 * 24 * time.Hour,
	}); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to create gap stream").
			WithContext("stream", streamName).
			Build()
	}

	kv, err := c.js.KeyValue(ctx, statusBucket)
	if err == nil {
		c.kv = kv
		return nil
	}
	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      statusBucket,
		Description: "Last outcome per docrender pass",
		History:     1,
		TTL:         7 * 24 * time.Hour,
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to create KV bucket").
			WithContext("bucket", statusBucket).
			Build()
	}
	c.kv = kv
	slog.Info("Created KV bucket for pass status", "bucket", statusBucket)
	return nil
}

func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := c.js.Publish(ctx, subject, data)
	return err
}

func (c *NATSClient) PutStatus(ctx context.Context, passID string, data []byte) error {
	_, err := c.kv.Put(ctx, passID, data)
	return err
}

// Close closes the NATS connection.
func (c *NATSClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// Notifier forwards pass events from the bus to NATS: every resolution gap
// is published on the subject, and the final outcome of each pass is
// published on subject + ".pass" and stored in the status bucket.
type Notifier struct {
	client  transport
	subject string
	retry   retry.Policy

	mu   sync.Mutex
	gaps map[string]int // per pass, until the pass finishes
}

// NewNotifier wraps a connected client. Failed publishes are retried
// according to policy within the per-event timeout.
func NewNotifier(client *NATSClient, subject string, policy retry.Policy) *Notifier {
	return newNotifier(client, subject, policy)
}

func newNotifier(t transport, subject string, policy retry.Policy) *Notifier {
	return &Notifier{client: t, subject: subject, retry: policy, gaps: map[string]int{}}
}

// Attach subscribes the notifier to the events it forwards.
func (n *Notifier) Attach(bus *events.Bus) {
	bus.Subscribe(events.NameResolutionGap, n.Handle)
	bus.Subscribe(events.NamePassCompleted, n.Handle)
	bus.Subscribe(events.NamePassFailed, n.Handle)
}

// Handle processes one event. Publishing failures are returned as notify
// errors; the bus reports them without failing the pass.
func (n *Notifier) Handle(e events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	switch ev := e.(type) {
	case events.ResolutionGap:
		n.mu.Lock()
		n.gaps[ev.PassID()]++
		n.mu.Unlock()
		return n.publish(ctx, n.subject, ev.PassID(), GapEvent{
			PassID:    ev.PassID(),
			Document:  ev.Document,
			Target:    ev.Target,
			Timestamp: time.Now().UTC(),
		})
	case events.PassCompleted:
		return n.finish(ctx, PassStatus{
			PassID:     ev.PassID(),
			Succeeded:  true,
			Written:    ev.Written,
			Gaps:       ev.Gaps,
			DurationMS: ev.DurationMS,
		})
	case events.PassFailed:
		n.mu.Lock()
		gaps := n.gaps[ev.PassID()]
		n.mu.Unlock()
		return n.finish(ctx, PassStatus{
			PassID:     ev.PassID(),
			Written:    ev.Written,
			Gaps:       gaps,
			Error:      ev.Error,
			DurationMS: ev.DurationMS,
		})
	}
	return nil
}

func (n *Notifier) finish(ctx context.Context, status PassStatus) error {
	n.mu.Lock()
	delete(n.gaps, status.PassID)
	n.mu.Unlock()
	status.FinishedAt = time.Now().UTC()
	if err := n.publish(ctx, n.subject+".pass", status.PassID, status); err != nil {
		return err
	}
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	err = n.retry.Do(ctx, func(ctx context.Context) error {
		return n.client.PutStatus(ctx, status.PassID, data)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to store pass status").
			WithContext("pass_id", status.PassID).
			Build()
	}
	return nil
}

func (n *Notifier) publish(ctx context.Context, subject, passID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = n.retry.Do(ctx, func(ctx context.Context) error {
		return n.client.Publish(ctx, subject, data)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to publish event").
			WithContext("subject", subject).
			WithContext("pass_id", passID).
			Build()
	}
	slog.Debug("Published pass event", logfields.PassID(passID), slog.String("subject", subject))
	return nil
}

// Close closes the underlying connection.
func (n *Notifier) Close() error { return n.client.Close() }
