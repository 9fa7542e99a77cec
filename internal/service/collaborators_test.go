package service

import (
	"context"
	"testing"

	"TaxonomySync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAuthorizer(t *testing.T) {
	a := NewStaticAuthorizer(config.AuthConfig{
		Tokens:      map[string]string{"secret-admin": "Admin", "secret-viewer": "viewer"},
		IngestRoles: []string{"admin", "taxonomy_editor"},
	})
	ctx := context.Background()

	p, err := a.Authenticate(ctx, "Bearer secret-admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Role)
	assert.True(t, a.CanIngest(ctx, p))

	p, err = a.Authenticate(ctx, "secret-viewer")
	require.NoError(t, err)
	assert.False(t, a.CanIngest(ctx, p))

	_, err = a.Authenticate(ctx, "Bearer nope")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = a.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, a.CanIngest(ctx, nil))
}

func TestStaticFeatureFlags(t *testing.T) {
	f := NewStaticFeatureFlags(config.FeatureConfig{IngestionV2: true, MatchingV2: false, LegacyFallback: true})
	ctx := context.Background()
	assert.True(t, f.IngestionV2Enabled(ctx, "any"))
	assert.False(t, f.MatchingV2Enabled(ctx, "any"))
	assert.True(t, f.LegacyFallbackAllowed(ctx, "any"))
}
