// Package journal keeps an append-only log of booking wizard activity in an
// embedded NATS JetStream stream.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName    = "templectl_events"
	subjectPrefix = "templectl.rom"
	retention     = 90 * 24 * time.Hour
)

// DefaultLimit is the number of entries History returns when limit <= 0.
const DefaultLimit = 20

// Entry is one journaled wizard event.
type Entry struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Mode      string    `json:"mode"`
	Step      int       `json:"step"`
	StepTitle string    `json:"step_title,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Subject returns the subject an entry of the given kind is published on.
// Example: "templectl.rom.submitted"
func Subject(kind string) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, kind)
}

// Store owns the embedded server, its connection and the event stream.
type Store struct {
	ns     *server.Server
	nc     *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
}

// Open starts the embedded server with its files under dataDir/journal and
// makes sure the stream exists.
func Open(ctx context.Context, dataDir string) (*Store, error) {
	storeDir := filepath.Join(dataDir, "journal")
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	ns, err := startEmbeddedNATS(storeDir)
	if err != nil {
		return nil, fmt.Errorf("starting journal server: %w", err)
	}
	nc, err := connectInProcess(ns)
	if err != nil {
		_ = shutdown(nil, ns)
		return nil, fmt.Errorf("connecting to journal server: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		_ = shutdown(nc, ns)
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   retention,
	})
	if err != nil {
		_ = shutdown(nc, ns)
		return nil, fmt.Errorf("creating journal stream: %w", err)
	}

	return &Store{ns: ns, nc: nc, js: js, stream: stream}, nil
}

// Close drains the connection and stops the embedded server.
func (s *Store) Close() error {
	return shutdown(s.nc, s.ns)
}

// Append publishes e. ID and Timestamp are filled in when empty.
func (s *Store) Append(ctx context.Context, e Entry) (*jetstream.PubAck, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	subject := Subject(e.Kind)
	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish journal entry to %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish entry: %w", err)
	}
	logger.Debug("Journal entry published: kind=%s seq=%d", e.Kind, ack.Sequence)
	return ack, nil
}

// History returns up to limit of the most recent entries, oldest first.
func (s *Store) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	info, err := s.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stream info: %w", err)
	}
	if info.State.Msgs == 0 {
		return nil, nil
	}

	start := info.State.FirstSeq
	if last := info.State.LastSeq; last >= uint64(limit) && last-uint64(limit)+1 > start {
		start = last - uint64(limit) + 1
	}

	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		DeliverPolicy: jetstream.DeliverByStartSequencePolicy,
		OptStartSeq:   start,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	defer func() {
		if err := s.stream.DeleteConsumer(context.Background(), consumer.CachedInfo().Name); err != nil {
			logger.Debug("Deleting history consumer: %v", err)
		}
	}()

	entries := make([]Entry, 0, limit)
	for len(entries) < limit {
		msgs, err := consumer.FetchNoWait(limit - len(entries))
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			meta, _ := msg.Metadata()
			var e Entry
			if err := json.Unmarshal(msg.Data(), &e); err != nil {
				logger.Warn("Skipping malformed journal entry: %v", err)
				_ = msg.Ack()
				continue
			}
			if meta != nil {
				e.Seq = meta.Sequence.Stream
			}
			entries = append(entries, e)
			_ = msg.Ack()
		}
		if count == 0 {
			break
		}
	}
	return entries, nil
}
