package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefrontHolderDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewStorefrontHolder(Config{StorefrontConfigPath: t.TempDir()})
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "4.1.0", cfg.APIVersion)
	assert.Contains(t, cfg.Features, "offline_sync")
	assert.Equal(t, "150", holder.ShippingCost(context.Background()).String())
}

func TestStorefrontHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`storefront:
  shippingCost: 75.5
  apiVersion: "4.2.0"
  features:
    - offline_sync
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storefront.yml"), content, 0o600))

	holder, err := NewStorefrontHolder(Config{StorefrontConfigPath: dir})
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "4.2.0", cfg.APIVersion)
	assert.Equal(t, []string{"offline_sync"}, cfg.Features)
	assert.Equal(t, "75.5", holder.ShippingCost(context.Background()).String())
}

func TestStorefrontHolderRejectsNegativeShipping(t *testing.T) {
	dir := t.TempDir()
	content := []byte("storefront:\n  shippingCost: -1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storefront.yml"), content, 0o600))

	_, err := NewStorefrontHolder(Config{StorefrontConfigPath: dir})
	assert.Error(t, err)
}
