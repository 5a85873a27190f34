package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jecitDev/jec-salesgrid/pkg/crm"
)

type fakeRedis struct {
	values map[string]string
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.values[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func samplePreferences() Preferences {
	return Preferences{
		Filters: crm.FilterState{Search: "한일", Tags: []string{"VIP"}},
		SavedViews: []SavedView{
			{ID: "v-1", Name: "제안 단계", Filters: crm.FilterState{Statuses: []crm.CompanyStatus{crm.StageProposal}}},
		},
		SelectedCompanyIDs: []string{"c-hanil"},
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStore(client, "")
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Preferences{}, empty)

	require.NoError(t, store.Save(ctx, samplePreferences()))
	assert.Contains(t, client.values, DefaultKey)
	assert.Contains(t, client.values[DefaultKey], `"selectedCompanyIds":["c-hanil"]`)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, samplePreferences(), got)
}

func TestRedisStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	client := newFakeRedis()
	client.getErr = boom
	_, err := NewRedisStore(client, "k").Load(ctx)
	assert.ErrorIs(t, err, boom)

	client = newFakeRedis()
	client.values["k"] = "{not json"
	_, err = NewRedisStore(client, "k").Load(ctx)
	assert.Error(t, err)

	client = newFakeRedis()
	client.setErr = boom
	assert.ErrorIs(t, NewRedisStore(client, "k").Save(ctx, Preferences{}), boom)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p := samplePreferences()
	require.NoError(t, store.Save(ctx, p))
	p.SelectedCompanyIDs[0] = "changed"

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-hanil"}, got.SelectedCompanyIDs)
}
