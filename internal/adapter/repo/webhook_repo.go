package repo

import (
	"context"
	"fmt"
	"time"

	"yardcraft/internal/domain"
	"yardcraft/internal/infra"
	"yardcraft/internal/sqlinline"
)

// WebhookEventRepositoryPG records processed billing events for idempotency.
type WebhookEventRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewWebhookEventRepository creates a new WebhookEventRepositoryPG.
func NewWebhookEventRepository(sql infra.SQLExecutor) *WebhookEventRepositoryPG {
	return &WebhookEventRepositoryPG{sql: sql}
}

// MarkProcessed records eventID and reports whether it was new.
func (r *WebhookEventRepositoryPG) MarkProcessed(ctx context.Context, eventID, eventType string, receivedAt time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertWebhookEvent, eventID, eventType, receivedAt)
	if err != nil {
		return false, fmt.Errorf("record webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UnmarkProcessed forgets eventID after a failed apply.
func (r *WebhookEventRepositoryPG) UnmarkProcessed(ctx context.Context, eventID string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QDeleteWebhookEvent, eventID); err != nil {
		return fmt.Errorf("release webhook event: %w", err)
	}
	return nil
}

var _ domain.WebhookEventRepository = (*WebhookEventRepositoryPG)(nil)
