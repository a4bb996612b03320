package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/motovlabs/vastserve/internal/models"
	"go.uber.org/zap"
)

// ClickHouseConfig configures the analytics sink.
type ClickHouseConfig struct {
	Enabled       bool
	Addr          string
	Database      string
	User          string
	Password      string
	FlushInterval time.Duration
	BatchSize     int
}

// ClickHouseEventSink batches beacon events into ClickHouse for
// analytics. Writes are asynchronous and best effort: the sink drops
// events when its buffer is full and logs flush failures instead of
// propagating them.
type ClickHouseEventSink struct {
	conn   driver.Conn
	logger *zap.Logger
	cfg    ClickHouseConfig

	events chan *models.Event
	done   chan struct{}
}

// NewClickHouseEventSink connects to ClickHouse and starts the flush
// loop.
func NewClickHouseEventSink(ctx context.Context, cfg ClickHouseConfig, logger *zap.Logger) (*ClickHouseEventSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}

	s := &ClickHouseEventSink{
		conn:   conn,
		logger: logger,
		cfg:    cfg,
		events: make(chan *models.Event, cfg.BatchSize*4),
		done:   make(chan struct{}),
	}

	go s.run()

	logger.Info("connected to ClickHouse",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.Database),
	)
	return s, nil
}

// Enqueue hands an event to the sink. Never blocks; drops on overflow.
func (s *ClickHouseEventSink) Enqueue(ev *models.Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("ClickHouse sink buffer full, dropping event",
			zap.String("event", ev.Event),
			zap.String("ad_id", ev.AdID),
		)
	}
}

// Close flushes what remains and stops the sink.
func (s *ClickHouseEventSink) Close() error {
	close(s.events)
	<-s.done
	return s.conn.Close()
}

func (s *ClickHouseEventSink) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]*models.Event, 0, s.cfg.BatchSize)
	for {
		select {
		case ev, ok := <-s.events:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, ev)
			if len(batch) >= s.cfg.BatchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *ClickHouseEventSink) flush(events []*models.Event) {
	if len(events) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ad_events (id, event, ad_id, params, user_agent, ip,
			referer, geo_country, geo_city, timestamp)
	`)
	if err != nil {
		s.logger.Error("failed to prepare ClickHouse batch", zap.Error(err))
		return
	}

	for _, ev := range events {
		params, err := json.Marshal(ev.Params)
		if err != nil {
			params = []byte("{}")
		}
		if err := batch.Append(ev.ID, ev.Event, ev.AdID, string(params),
			ev.UserAgent, ev.IP, ev.Referer, ev.GeoCountry, ev.GeoCity,
			ev.Timestamp); err != nil {
			s.logger.Error("failed to append to ClickHouse batch", zap.Error(err))
			return
		}
	}

	if err := batch.Send(); err != nil {
		s.logger.Error("failed to flush events to ClickHouse",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("flushed events to ClickHouse", zap.Int("count", len(events)))
}
