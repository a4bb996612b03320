package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motovlabs/vastserve/internal/models"
)

// PostgresEventStore implements EventStore using PostgreSQL.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresEventStore creates a new PostgreSQL-backed event store.
func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

func (s *PostgresEventStore) SaveEvent(ctx context.Context, ev *models.Event) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	params, err := json.Marshal(ev.Params)
	if err != nil {
		return "", fmt.Errorf("failed to encode event params: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO events (id, event, ad_id, params, user_agent, ip, referer,
			geo_country, geo_city, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, ev.ID, ev.Event, nullString(ev.AdID), params, nullString(ev.UserAgent),
		nullString(ev.IP), nullString(ev.Referer), nullString(ev.GeoCountry),
		nullString(ev.GeoCity), ev.Timestamp)

	if err != nil {
		return "", fmt.Errorf("failed to save event: %w", err)
	}
	return ev.ID, nil
}

func (s *PostgresEventStore) SaveAdRequest(ctx context.Context, req *models.AdRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ad_requests (id, app_id, ad_slot_id, user_id, ip, user_agent,
			ad_id, status_code, response_ms, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, req.ID, req.AppID, req.AdSlotID, nullString(req.UserID),
		nullString(req.IP), nullString(req.UserAgent), nullString(req.AdID),
		req.StatusCode, req.ResponseMs, req.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to save ad request: %w", err)
	}
	return nil
}

func (s *PostgresEventStore) GetEventsByAd(ctx context.Context, adID string, since time.Time) ([]*models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event, ad_id, params, user_agent, ip, referer,
			geo_country, geo_city, timestamp
		FROM events
		WHERE ad_id = $1 AND timestamp > $2
		ORDER BY timestamp DESC LIMIT 10000
	`, adID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var ev models.Event
		var adIDCol, userAgent, ip, referer, geoCountry, geoCity *string
		var params []byte

		if err := rows.Scan(&ev.ID, &ev.Event, &adIDCol, &params, &userAgent,
			&ip, &referer, &geoCountry, &geoCity, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		if adIDCol != nil {
			ev.AdID = *adIDCol
		}
		if userAgent != nil {
			ev.UserAgent = *userAgent
		}
		if ip != nil {
			ev.IP = *ip
		}
		if referer != nil {
			ev.Referer = *referer
		}
		if geoCountry != nil {
			ev.GeoCountry = *geoCountry
		}
		if geoCity != nil {
			ev.GeoCity = *geoCity
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &ev.Params); err != nil {
				return nil, fmt.Errorf("failed to decode event params: %w", err)
			}
		}

		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (s *PostgresEventStore) CountByAdAndType(ctx context.Context, adID, event string) (int64, error) {
	var count int64
	var err error
	if event == "" {
		err = s.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM events WHERE ad_id = $1
		`, adID).Scan(&count)
	} else {
		err = s.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM events WHERE ad_id = $1 AND event = $2
		`, adID, event).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
