package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/motovlabs/vastserve/internal/models"
	"github.com/motovlabs/vastserve/internal/vast"
)

// PostgresAdRepo implements AdRepo using PostgreSQL. Media files and
// tracking events are stored as JSONB columns.
type PostgresAdRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresAdRepo creates a new PostgreSQL-backed ad repo.
func NewPostgresAdRepo(pool *pgxpool.Pool) *PostgresAdRepo {
	return &PostgresAdRepo{pool: pool}
}

const adColumns = `id, title, description, advertiser, status, media_files,
	duration_seconds, click_through, click_tracking, tracking_events,
	created_at, updated_at`

func (r *PostgresAdRepo) ListAll(ctx context.Context) ([]*models.Ad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+adColumns+`
		FROM ads WHERE status <> 'deleted' ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()
	return scanAds(rows)
}

func (r *PostgresAdRepo) ListActive(ctx context.Context) ([]*models.Ad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+adColumns+`
		FROM ads WHERE status = 'active' ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active ads: %w", err)
	}
	defer rows.Close()
	return scanAds(rows)
}

func (r *PostgresAdRepo) GetByID(ctx context.Context, id string) (*models.Ad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+adColumns+`
		FROM ads WHERE id = $1 AND status <> 'deleted'
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	defer rows.Close()

	ads, err := scanAds(rows)
	if err != nil {
		return nil, err
	}
	if len(ads) == 0 {
		return nil, nil
	}
	return ads[0], nil
}

func (r *PostgresAdRepo) Upsert(ctx context.Context, ad *models.Ad) error {
	now := time.Now().UTC()
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = now
	}
	ad.UpdatedAt = now
	if ad.Status == "" {
		ad.Status = models.AdStatusActive
	}

	mediaFiles, err := json.Marshal(ad.MediaFiles)
	if err != nil {
		return fmt.Errorf("failed to encode media files: %w", err)
	}
	clickTracking, err := json.Marshal(ad.ClickTracking)
	if err != nil {
		return fmt.Errorf("failed to encode click tracking: %w", err)
	}
	trackingEvents, err := json.Marshal(ad.TrackingEvents)
	if err != nil {
		return fmt.Errorf("failed to encode tracking events: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO ads (id, title, description, advertiser, status, media_files,
			duration_seconds, click_through, click_tracking, tracking_events,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			advertiser = EXCLUDED.advertiser,
			status = EXCLUDED.status,
			media_files = EXCLUDED.media_files,
			duration_seconds = EXCLUDED.duration_seconds,
			click_through = EXCLUDED.click_through,
			click_tracking = EXCLUDED.click_tracking,
			tracking_events = EXCLUDED.tracking_events,
			updated_at = EXCLUDED.updated_at
	`, ad.ID, ad.Title, nullString(ad.Description), nullString(ad.Advertiser),
		string(ad.Status), mediaFiles, ad.DurationSeconds,
		nullString(ad.ClickThrough), clickTracking, trackingEvents,
		ad.CreatedAt, ad.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert ad: %w", err)
	}
	return nil
}

func (r *PostgresAdRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE ads SET status = 'deleted', updated_at = $2 WHERE id = $1
	`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	return nil
}

func scanAds(rows pgx.Rows) ([]*models.Ad, error) {
	var ads []*models.Ad
	for rows.Next() {
		var ad models.Ad
		var description, advertiser, clickThrough *string
		var status string
		var mediaFiles, clickTracking, trackingEvents []byte

		if err := rows.Scan(&ad.ID, &ad.Title, &description, &advertiser,
			&status, &mediaFiles, &ad.DurationSeconds, &clickThrough,
			&clickTracking, &trackingEvents, &ad.CreatedAt, &ad.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}

		if description != nil {
			ad.Description = *description
		}
		if advertiser != nil {
			ad.Advertiser = *advertiser
		}
		if clickThrough != nil {
			ad.ClickThrough = *clickThrough
		}
		ad.Status = models.AdStatus(status)

		if len(mediaFiles) > 0 {
			if err := json.Unmarshal(mediaFiles, &ad.MediaFiles); err != nil {
				return nil, fmt.Errorf("failed to decode media files: %w", err)
			}
		}
		if len(clickTracking) > 0 {
			if err := json.Unmarshal(clickTracking, &ad.ClickTracking); err != nil {
				return nil, fmt.Errorf("failed to decode click tracking: %w", err)
			}
		}
		if len(trackingEvents) > 0 {
			var events vast.TrackingEventSet
			if err := json.Unmarshal(trackingEvents, &events); err != nil {
				return nil, fmt.Errorf("failed to decode tracking events: %w", err)
			}
			ad.TrackingEvents = events
		}

		ads = append(ads, &ad)
	}
	return ads, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
