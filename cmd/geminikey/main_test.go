package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKeys struct{ key string }

func (m *memKeys) GeminiAPIKey(context.Context) (string, error) { return m.key, nil }

func (m *memKeys) SetGeminiAPIKey(_ context.Context, key string) error {
	m.key = strings.TrimSpace(key)
	return nil
}

func TestRunStoresAndShowsMaskedKey(t *testing.T) {
	store := &memKeys{}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), &out, store, " AIzaSecret1234 ", false))
	assert.Equal(t, "AIzaSecret1234", store.key)
	assert.NotContains(t, out.String(), "AIzaSecret")
	assert.Contains(t, out.String(), "1234")

	out.Reset()
	require.NoError(t, run(context.Background(), &out, store, "", true))
	assert.Equal(t, "**********1234\n", out.String())
}

func TestRunRequiresKey(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &memKeys{}, "  ", false)
	require.Error(t, err)
}

func TestRunShowEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &memKeys{}, "", true))
	assert.Equal(t, "no key stored\n", out.String())
}
