// Package credentials keeps provider API keys in the database so they can
// be rotated without redeploying the API.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"yardcraft/internal/infra"
	"yardcraft/internal/sqlinline"
)

const ProviderGemini = "gemini"

var ErrEmptyKey = errors.New("api key is required")

type Store struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, now: time.Now}
}

// Key returns the stored key for provider, or "" when none is stored.
func (s *Store) Key(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider)
	var key string
	if err := row.Scan(&key); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("load %s key: %w", provider, err)
	}
	return strings.TrimSpace(key), nil
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Key(ctx, ProviderGemini)
}

// SetKey stores key for provider and stamps the rotation time.
func (s *Store) SetKey(ctx context.Context, provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	raw, err := json.Marshal(map[string]any{
		"rotated_at": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertProviderKey, provider, key, raw); err != nil {
		return fmt.Errorf("store %s key: %w", provider, err)
	}
	return nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	return s.SetKey(ctx, ProviderGemini, key)
}

// ResolveGeminiKey prefers the configured key and falls back to the
// stored one.
func (s *Store) ResolveGeminiKey(ctx context.Context, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	return s.GeminiAPIKey(ctx)
}
