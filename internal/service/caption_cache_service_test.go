package service

import (
	"context"
	"testing"
	"time"

	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(repo *fakeCaptionRepo, hot HotCache, now time.Time) *CaptionCacheService {
	s := NewCaptionCacheService(repo, hot, caption.DefaultTTL, zap.NewNop())
	s.now = func() time.Time { return now }
	repo.now = func() time.Time { return now }
	return s
}

func TestCaptionCache_PutThenGet(t *testing.T) {
	repo := newFakeCaptionRepo()
	s := newTestCache(repo, nil, fixedNow)
	ctx := context.Background()

	s.Put(ctx, "u1/cat.png", caption.VariantDefault, "A cat on a sofa.")

	text, ok := s.Get(ctx, "u1/cat.png", caption.VariantDefault)
	require.True(t, ok)
	assert.Equal(t, "A cat on a sofa.", text)

	entry := repo.entries[cacheKey{"u1/cat.png", caption.VariantDefault}]
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), entry.ExpiresAt)
}

func TestCaptionCache_VariantsAreIndependent(t *testing.T) {
	s := newTestCache(newFakeCaptionRepo(), nil, fixedNow)
	ctx := context.Background()

	s.Put(ctx, "u1/cat.png", caption.VariantSEO, "seo text")
	s.Put(ctx, "u1/cat.png", caption.VariantLong, "long text")

	seo, ok := s.Get(ctx, "u1/cat.png", caption.VariantSEO)
	require.True(t, ok)
	long, ok := s.Get(ctx, "u1/cat.png", caption.VariantLong)
	require.True(t, ok)
	assert.Equal(t, "seo text", seo)
	assert.Equal(t, "long text", long)

	_, ok = s.Get(ctx, "u1/cat.png", caption.VariantDefault)
	assert.False(t, ok)
}

func TestCaptionCache_ExpiredIsMiss(t *testing.T) {
	repo := newFakeCaptionRepo()
	repo.entries[cacheKey{"k", caption.VariantDefault}] = caption.Entry{
		Locator: "k", Variant: caption.VariantDefault, Text: "old", ExpiresAt: fixedNow.Add(-time.Second),
	}
	s := newTestCache(repo, nil, fixedNow)

	_, ok := s.Get(context.Background(), "k", caption.VariantDefault)
	assert.False(t, ok)
}

func TestCaptionCache_PutReplacesAndExtends(t *testing.T) {
	repo := newFakeCaptionRepo()
	s := newTestCache(repo, nil, fixedNow)
	ctx := context.Background()

	s.Put(ctx, "k", caption.VariantDefault, "first")
	s.now = func() time.Time { return fixedNow.Add(time.Hour) }
	s.Put(ctx, "k", caption.VariantDefault, "second")

	entry := repo.entries[cacheKey{"k", caption.VariantDefault}]
	assert.Equal(t, "second", entry.Text)
	assert.Equal(t, fixedNow.Add(time.Hour+30*24*time.Hour), entry.ExpiresAt)
	assert.Len(t, repo.entries, 1)
}

func TestCaptionCache_StoreFailureIsSoft(t *testing.T) {
	repo := newFakeCaptionRepo()
	repo.err = errStoreDown
	s := newTestCache(repo, nil, fixedNow)

	assert.NotPanics(t, func() { s.Put(context.Background(), "k", caption.VariantDefault, "x") })
	_, ok := s.Get(context.Background(), "k", caption.VariantDefault)
	assert.False(t, ok)
}

func TestCaptionCache_HotTierServesAndBackfills(t *testing.T) {
	repo := newFakeCaptionRepo()
	hot := newFakeHot()
	s := newTestCache(repo, hot, fixedNow)
	ctx := context.Background()

	repo.entries[cacheKey{"k", caption.VariantSEO}] = caption.Entry{
		Locator: "k", Variant: caption.VariantSEO, Text: "from db", ExpiresAt: fixedNow.Add(2 * time.Hour),
	}

	text, ok := s.Get(ctx, "k", caption.VariantSEO)
	require.True(t, ok)
	assert.Equal(t, "from db", text)
	assert.Equal(t, "from db", hot.entries[cacheKey{"k", caption.VariantSEO}])
	assert.Equal(t, 2*time.Hour, hot.ttls[cacheKey{"k", caption.VariantSEO}])

	delete(repo.entries, cacheKey{"k", caption.VariantSEO})
	text, ok = s.Get(ctx, "k", caption.VariantSEO)
	require.True(t, ok, "second read is served by the hot tier")
	assert.Equal(t, "from db", text)
}

func TestCaptionCache_HotTierFailureFallsBack(t *testing.T) {
	repo := newFakeCaptionRepo()
	hot := newFakeHot()
	hot.err = errStoreDown
	s := newTestCache(repo, hot, fixedNow)
	ctx := context.Background()

	s.Put(ctx, "k", caption.VariantDefault, "durable")

	text, ok := s.Get(ctx, "k", caption.VariantDefault)
	require.True(t, ok)
	assert.Equal(t, "durable", text)
}
