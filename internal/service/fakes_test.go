package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/apikey"
	"github.com/makkenzo/alttext-service-api/internal/domain/caption"
	"github.com/makkenzo/alttext-service-api/internal/domain/image"
	"github.com/makkenzo/alttext-service-api/internal/domain/principal"
	"github.com/makkenzo/alttext-service-api/internal/domain/ratelimit"
	"github.com/makkenzo/alttext-service-api/internal/domain/usage"
	"github.com/makkenzo/alttext-service-api/internal/domain/user"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
)

var errStoreDown = errors.New("connection refused")

type fakePlans struct {
	tiers map[uuid.UUID]user.Tier
	err   error
}

func (f *fakePlans) Plan(_ context.Context, userID uuid.UUID) (user.Tier, error) {
	if f.err != nil {
		return user.TierFree, f.err
	}
	if t, ok := f.tiers[userID]; ok {
		return t, nil
	}
	return user.TierFree, nil
}

type fakeKeys struct {
	mu       sync.Mutex
	byHash   map[string]*apikey.APIKey
	findErr  error
	touched  chan uuid.UUID
	touchErr error
}

func newFakeKeys() *fakeKeys {
	return &fakeKeys{byHash: map[string]*apikey.APIKey{}, touched: make(chan uuid.UUID, 8)}
}

// FindActiveByHash mirrors the SQL filter on revoked_at.
func (f *fakeKeys) FindActiveByHash(_ context.Context, keyHash string) (*apikey.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	k, ok := f.byHash[keyHash]
	if !ok || k.RevokedAt != nil {
		return nil, apikey.ErrAPIKeyNotFound
	}
	cp := *k
	return &cp, nil
}

func (f *fakeKeys) Create(_ context.Context, key *apikey.APIKey) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	f.byHash[key.KeyHash] = key
	return key.ID, nil
}

func (f *fakeKeys) UpdateLastUsed(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.touched <- id
	return f.touchErr
}

type fakeSessions struct {
	users map[string]uuid.UUID
}

func (f *fakeSessions) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ierr.ErrUnauthorized
	}
	id, ok := f.users[token]
	if !ok {
		return uuid.Nil, ierr.ErrInvalidSession
	}
	return id, nil
}

type dayKey struct {
	user uuid.UUID
	day  time.Time
}

// fakeRateRepo keeps counters in memory. The failure knobs let tests fail
// a number of calls before the store recovers.
type fakeRateRepo struct {
	mu       sync.Mutex
	counts   map[dayKey]int
	failNext int
	// raceOnCreate makes the first Create lose to a phantom concurrent insert.
	raceOnCreate bool
	findCalls    int
	createCalls  int
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{counts: map[dayKey]int{}}
}

func (f *fakeRateRepo) fail() bool {
	if f.failNext != 0 {
		if f.failNext > 0 {
			f.failNext--
		}
		return true
	}
	return false
}

func (f *fakeRateRepo) Find(_ context.Context, userID uuid.UUID, day time.Time) (*ratelimit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.fail() {
		return nil, errStoreDown
	}
	c, ok := f.counts[dayKey{userID, day}]
	if !ok {
		return nil, ratelimit.ErrRecordNotFound
	}
	return &ratelimit.Record{UserID: userID, Date: day, ImageCount: c}, nil
}

func (f *fakeRateRepo) Create(_ context.Context, userID uuid.UUID, day time.Time) (*ratelimit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.fail() {
		return nil, errStoreDown
	}
	k := dayKey{userID, day}
	if f.raceOnCreate {
		f.raceOnCreate = false
		f.counts[k] = 3
		return nil, ratelimit.ErrRecordExists
	}
	if _, ok := f.counts[k]; ok {
		return nil, ratelimit.ErrRecordExists
	}
	f.counts[k] = 0
	return &ratelimit.Record{UserID: userID, Date: day}, nil
}

func (f *fakeRateRepo) Increment(_ context.Context, userID uuid.UUID, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return 0, errStoreDown
	}
	k := dayKey{userID, day}
	f.counts[k]++
	return f.counts[k], nil
}

func (f *fakeRateRepo) count(userID uuid.UUID, day time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[dayKey{userID, day}]
}

type cacheKey struct {
	locator string
	variant caption.Variant
}

type fakeCaptionRepo struct {
	mu      sync.Mutex
	entries map[cacheKey]caption.Entry
	now     func() time.Time
	err     error
}

func newFakeCaptionRepo() *fakeCaptionRepo {
	return &fakeCaptionRepo{entries: map[cacheKey]caption.Entry{}, now: time.Now}
}

func (f *fakeCaptionRepo) Find(_ context.Context, locator string, variant caption.Variant) (*caption.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.entries[cacheKey{locator, variant}]
	if !ok || !e.ExpiresAt.After(f.now()) {
		return nil, caption.ErrCacheMiss
	}
	return &e, nil
}

func (f *fakeCaptionRepo) Upsert(_ context.Context, entry *caption.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[cacheKey{entry.Locator, entry.Variant}] = *entry
	return nil
}

func (f *fakeCaptionRepo) PurgeExpired(context.Context, int) (int64, error) { return 0, nil }

type fakeHot struct {
	mu      sync.Mutex
	entries map[cacheKey]string
	ttls    map[cacheKey]time.Duration
	err     error
}

func newFakeHot() *fakeHot {
	return &fakeHot{entries: map[cacheKey]string{}, ttls: map[cacheKey]time.Duration{}}
}

func (f *fakeHot) Get(_ context.Context, locator string, variant caption.Variant) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	t, ok := f.entries[cacheKey{locator, variant}]
	if !ok {
		return "", caption.ErrCacheMiss
	}
	return t, nil
}

func (f *fakeHot) Set(_ context.Context, locator string, variant caption.Variant, text string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[cacheKey{locator, variant}] = text
	f.ttls[cacheKey{locator, variant}] = ttl
	return nil
}

type fakeCaptioner struct {
	calls   atomic.Int32
	lastURL atomic.Value
	text    string
	err     error
}

func (f *fakeCaptioner) Generate(_ context.Context, imageURL string, variant caption.Variant) (string, error) {
	f.calls.Add(1)
	f.lastURL.Store(imageURL)
	if f.err != nil {
		return "", f.err
	}
	return f.text + " (" + string(variant) + ")", nil
}

type fakeUsageRepo struct {
	mu      sync.Mutex
	entries []usage.LogEntry
	err     error
}

func (f *fakeUsageRepo) Append(_ context.Context, entry *usage.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

type fakeImages struct {
	mu     sync.Mutex
	images map[uuid.UUID]*image.Image
}

func newFakeImages(imgs ...*image.Image) *fakeImages {
	f := &fakeImages{images: map[uuid.UUID]*image.Image{}}
	for _, img := range imgs {
		f.images[img.ID] = img
	}
	return f
}

func (f *fakeImages) ForUser(userID uuid.UUID) image.Scoped {
	return &fakeScopedImages{store: f, owner: userID}
}

type fakeScopedImages struct {
	store *fakeImages
	owner uuid.UUID
}

func (s *fakeScopedImages) Get(_ context.Context, id uuid.UUID) (*image.Image, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	img, ok := s.store.images[id]
	if !ok || img.UserID != s.owner {
		return nil, image.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func (s *fakeScopedImages) SetAltText(_ context.Context, id uuid.UUID, altText string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	img, ok := s.store.images[id]
	if !ok || img.UserID != s.owner {
		return image.ErrNotFound
	}
	img.AltText.String, img.AltText.Valid = altText, true
	return nil
}

type fakeURLs struct{}

func (fakeURLs) URL(_ context.Context, key string) (string, error) {
	return "https://storage.test/images/" + key + "?signed=1", nil
}

type recordCall struct {
	p      principal.Principal
	status int
	cached bool
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordCall
}

func (f *fakeRecorder) Record(_ context.Context, p principal.Principal, status int, cached bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordCall{p, status, cached})
}
