package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"

	"presskit/internal/types"
)

// WebhookArchive persists verified webhook deliveries for audit and manual
// replay. Raw payloads are stored zstd-compressed; a month of subscription
// webhooks compresses to a few kilobytes per creator.
//
// Archive failures must never fail webhook processing. Callers log and
// continue.
type WebhookArchive struct {
	db      DBTX
	logger  *slog.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewWebhookArchive creates a WebhookArchive with stateless zstd codecs
// shared across goroutines (EncodeAll/DecodeAll are concurrency-safe).
func NewWebhookArchive(db DBTX, logger *slog.Logger) (*WebhookArchive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &WebhookArchive{
		db:      db,
		logger:  logger,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Store compresses and inserts one verified webhook delivery.
func (a *WebhookArchive) Store(ctx context.Context, eventName, subscriptionID, identityID string, rawPayload []byte, receivedAt time.Time) error {
	compressed := a.encoder.EncodeAll(rawPayload, nil)

	_, err := a.db.Exec(ctx,
		`INSERT INTO webhook_archive (event_name, subscription_id, identity_id, payload, received_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		eventName,
		subscriptionID,
		identityID,
		compressed,
		receivedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to archive webhook payload", err)
	}
	return nil
}

// ListRecent returns the most recent archived deliveries for a subscription,
// payloads decompressed. Used by support tooling to inspect provider history.
func (a *WebhookArchive) ListRecent(ctx context.Context, subscriptionID string, limit int) ([]types.WebhookArchiveRecord, error) {
	rows, err := a.db.Query(ctx,
		`SELECT id, event_name, subscription_id, identity_id, payload, received_at
		 FROM webhook_archive
		 WHERE subscription_id = $1
		 ORDER BY received_at DESC
		 LIMIT $2`,
		subscriptionID,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query webhook archive", err)
	}
	defer rows.Close()

	var records []types.WebhookArchiveRecord
	for rows.Next() {
		var rec types.WebhookArchiveRecord
		var compressed []byte
		if err := rows.Scan(&rec.ID, &rec.EventName, &rec.SubscriptionID, &rec.IdentityID, &compressed, &rec.ReceivedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan webhook archive row", err)
		}
		payload, err := a.decoder.DecodeAll(compressed, nil)
		if err != nil {
			// Corrupt archive rows are logged and skipped rather than
			// failing the whole listing.
			a.logger.Error("failed to decompress archived webhook payload",
				slog.Int64("archive_id", rec.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		rec.Payload = payload
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate webhook archive", err)
	}
	return records, nil
}
