package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/domain/apikey"
	"github.com/makkenzo/alttext-service-api/internal/domain/principal"
	"github.com/makkenzo/alttext-service-api/internal/domain/user"
	"github.com/makkenzo/alttext-service-api/internal/ierr"
	"github.com/makkenzo/alttext-service-api/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type credentialFixture struct {
	svc      *CredentialService
	keys     *fakeKeys
	plans    *fakePlans
	owner    uuid.UUID
	rawKey   string
	keyID    uuid.UUID
	sessions *fakeSessions
}

func newCredentialFixture(t *testing.T, tier user.Tier) *credentialFixture {
	t.Helper()

	owner := uuid.New()
	fullKey, prefix, hash, err := util.GenerateAPIKey()
	require.NoError(t, err)

	keys := newFakeKeys()
	keyID, err := keys.Create(context.Background(), &apikey.APIKey{UserID: owner, KeyHash: hash, Prefix: prefix})
	require.NoError(t, err)

	plans := &fakePlans{tiers: map[uuid.UUID]user.Tier{owner: tier}}
	sessions := &fakeSessions{users: map[string]uuid.UUID{"good-session": owner}}

	return &credentialFixture{
		svc:      NewCredentialService(keys, NewPlanService(planRepo{plans}, zap.NewNop()), sessions, zap.NewNop()),
		keys:     keys,
		plans:    plans,
		owner:    owner,
		rawKey:   fullKey,
		keyID:    keyID,
		sessions: sessions,
	}
}

// planRepo adapts fakePlans to user.Repository so PlanService is exercised.
type planRepo struct{ p *fakePlans }

func (r planRepo) GetPlan(ctx context.Context, userID uuid.UUID) (user.Tier, error) {
	return r.p.Plan(ctx, userID)
}

func TestResolve_ProAPIKey(t *testing.T) {
	f := newCredentialFixture(t, user.TierPro)

	p, err := f.svc.Resolve(context.Background(), Credentials{BearerToken: f.rawKey, SessionToken: "good-session"})
	require.NoError(t, err)

	key, ok := p.(principal.APIKey)
	require.True(t, ok, "bearer token takes precedence over the session")
	assert.Equal(t, f.owner, key.UserID)
	assert.Equal(t, f.keyID, key.APIKeyID)

	select {
	case id := <-f.keys.touched:
		assert.Equal(t, f.keyID, id)
	case <-time.After(time.Second):
		t.Fatal("last_used_at was not touched")
	}
}

func TestResolve_UnknownAPIKey(t *testing.T) {
	f := newCredentialFixture(t, user.TierPro)

	_, err := f.svc.Resolve(context.Background(), Credentials{BearerToken: "ak_nope_nope"})
	assert.ErrorIs(t, err, ierr.ErrInvalidAPIKey)
}

func TestResolve_EmptyBearerDoesNotFallBackToSession(t *testing.T) {
	f := newCredentialFixture(t, user.TierPro)

	p, err := f.svc.Resolve(context.Background(), Credentials{HasBearer: true, SessionToken: "good-session"})
	require.ErrorIs(t, err, ierr.ErrInvalidAPIKey)
	assert.Nil(t, p)
	assert.Equal(t, 401, ierr.HTTPStatus(err))
}

func TestResolve_RevokedAPIKeyIsUnauthorized(t *testing.T) {
	f := newCredentialFixture(t, user.TierPro)
	now := time.Now()
	f.keys.byHash[util.HashAPIKey(f.rawKey)].RevokedAt = &now

	_, err := f.svc.Resolve(context.Background(), Credentials{BearerToken: f.rawKey})
	require.ErrorIs(t, err, ierr.ErrInvalidAPIKey)
	assert.Equal(t, 401, ierr.HTTPStatus(err))
}

func TestResolve_FreePlanAPIKeyForbidden(t *testing.T) {
	f := newCredentialFixture(t, user.TierFree)

	_, err := f.svc.Resolve(context.Background(), Credentials{BearerToken: f.rawKey})
	require.ErrorIs(t, err, ierr.ErrPlanRequired)
	assert.Equal(t, 403, ierr.HTTPStatus(err))
	assert.Empty(t, f.keys.touched)
}

func TestResolve_PlanLookupFailureIsInternal(t *testing.T) {
	f := newCredentialFixture(t, user.TierPro)
	f.plans.err = errStoreDown

	_, err := f.svc.Resolve(context.Background(), Credentials{BearerToken: f.rawKey})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ierr.ErrPlanRequired)
	assert.Equal(t, 500, ierr.HTTPStatus(err))
}

func TestResolve_Session(t *testing.T) {
	f := newCredentialFixture(t, user.TierFree)

	p, err := f.svc.Resolve(context.Background(), Credentials{SessionToken: "good-session"})
	require.NoError(t, err)
	assert.Equal(t, principal.Session{UserID: f.owner}, p)
}

func TestResolve_NoCredentials(t *testing.T) {
	f := newCredentialFixture(t, user.TierFree)

	_, err := f.svc.Resolve(context.Background(), Credentials{})
	require.ErrorIs(t, err, ierr.ErrUnauthorized)

	_, err = f.svc.Resolve(context.Background(), Credentials{SessionToken: "stale"})
	require.ErrorIs(t, err, ierr.ErrUnauthorized)
	assert.Equal(t, 401, ierr.HTTPStatus(err))
}

func TestJWTSessions_RoundTrip(t *testing.T) {
	sessions := NewJWTSessions("test-secret", "alttext")
	userID := uuid.New()

	token, err := sessions.Issue(userID, time.Hour)
	require.NoError(t, err)

	got, err := sessions.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTSessions_Rejects(t *testing.T) {
	sessions := NewJWTSessions("test-secret", "alttext")
	userID := uuid.New()

	expired, err := sessions.Issue(userID, -time.Minute)
	require.NoError(t, err)
	_, err = sessions.Authenticate(context.Background(), expired)
	assert.ErrorIs(t, err, ierr.ErrInvalidSession)

	other, err := NewJWTSessions("other-secret", "alttext").Issue(userID, time.Hour)
	require.NoError(t, err)
	_, err = sessions.Authenticate(context.Background(), other)
	assert.ErrorIs(t, err, ierr.ErrInvalidSession)

	wrongIssuer, err := NewJWTSessions("test-secret", "someone-else").Issue(userID, time.Hour)
	require.NoError(t, err)
	_, err = sessions.Authenticate(context.Background(), wrongIssuer)
	assert.ErrorIs(t, err, ierr.ErrInvalidSession)

	_, err = sessions.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ierr.ErrUnauthorized)
}
