package redesign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"yardcraft/internal/domain"
	"yardcraft/internal/storage"
)

// UsageRecorder increments an account's usage counter.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, acc domain.Account) (int, error)
}

// Gateway uploads both images, stores the record and records usage. Either
// all three happen or none are visible afterwards.
type Gateway struct {
	store  storage.ObjectStore
	repo   domain.RedesignRepository
	usage  UsageRecorder
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewGateway builds a Gateway. store should already retry uploads.
func NewGateway(store storage.ObjectStore, repo domain.RedesignRepository, usage UsageRecorder, logger zerolog.Logger) *Gateway {
	return &Gateway{
		store:  store,
		repo:   repo,
		usage:  usage,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Persist implements Persister.
func (g *Gateway) Persist(ctx context.Context, acc domain.Account, original, generated domain.Image, catalog domain.DesignCatalog, req domain.RedesignRequest) (*domain.RedesignRecord, error) {
	id := g.newID()
	prefix := fmt.Sprintf("redesigns/%s/%s", acc.ID, id)

	var originalObj, generatedObj storage.Object
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		obj, err := g.store.Put(egCtx, prefix+"/original."+storage.ExtensionFor(original.MIMEType), original.Data, original.MIMEType)
		if err != nil {
			return fmt.Errorf("upload original: %w", err)
		}
		originalObj = obj
		return nil
	})
	eg.Go(func() error {
		obj, err := g.store.Put(egCtx, prefix+"/redesigned."+storage.ExtensionFor(generated.MIMEType), generated.Data, generated.MIMEType)
		if err != nil {
			return fmt.Errorf("upload redesign: %w", err)
		}
		generatedObj = obj
		return nil
	})
	if err := eg.Wait(); err != nil {
		g.cleanup(ctx, originalObj.Key, generatedObj.Key)
		return nil, domain.NewError(domain.KindUploadFailed, "could not store images", err)
	}

	rec := &domain.RedesignRecord{
		ID:            id,
		AccountID:     acc.ID,
		OriginalURL:   originalObj.URL,
		RedesignedURL: generatedObj.URL,
		OriginalKey:   originalObj.Key,
		RedesignedKey: generatedObj.Key,
		Catalog:       catalog.Normalized(),
		Styles:        req.Styles,
		ClimateZone:   req.ClimateZone,
		Density:       req.Density,
		CreatedAt:     g.now().UTC(),
	}
	if err := g.repo.CreateRedesign(ctx, rec); err != nil {
		g.cleanup(ctx, originalObj.Key, generatedObj.Key)
		return nil, domain.NewError(domain.KindUnclassified, "create redesign record", err)
	}

	if _, err := g.usage.RecordUsage(ctx, acc); err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		if derr := g.repo.DeleteRedesign(cleanupCtx, acc.ID, id); derr != nil {
			g.logger.Error().Err(derr).Str("redesign_id", id).Msg("compensating delete failed")
		}
		g.cleanup(ctx, originalObj.Key, generatedObj.Key)
		return nil, domain.NewError(domain.KindUnclassified, "record usage", err)
	}

	g.logger.Info().
		Str("account_id", acc.ID).
		Str("redesign_id", id).
		Msg("redesign persisted")
	return rec, nil
}

// cleanup deletes uploaded objects on a best effort basis.
func (g *Gateway) cleanup(ctx context.Context, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := g.store.Delete(ctx, key); err != nil {
			g.logger.Warn().Err(err).Str("key", key).Msg("cleanup uploaded image")
		}
	}
}

// DeleteImages removes both stored images of rec.
func (g *Gateway) DeleteImages(ctx context.Context, rec *domain.RedesignRecord) {
	g.cleanup(ctx, rec.OriginalKey, rec.RedesignedKey)
}

var _ Persister = (*Gateway)(nil)
