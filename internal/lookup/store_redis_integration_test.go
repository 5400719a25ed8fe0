//go:build integration

package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/pkg/platform/sentinel"
	"registrar/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisStore(s.redis.Client, time.Minute)
}

func (s *RedisStoreIntegrationSuite) TearDownSuite() {
	s.redis.Close(context.Background())
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.ClearKeys(context.Background(), lookupKeyPrefix+"*"))
}

func (s *RedisStoreIntegrationSuite) TestSaveLoadDelete() {
	ctx := context.Background()
	region := int64(1)
	fetched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Require().NoError(s.store.Save(ctx, "provinces", []Entity{{ID: 10, Label: "Metro Manila", ParentID: &region}}, fetched))

	got, at, err := s.store.Load(ctx, "provinces")
	s.Require().NoError(err)
	s.True(at.Equal(fetched))
	s.Require().Len(got, 1)
	s.True(got[0].HasParent(1))

	ttl, err := s.redis.Client.TTL(ctx, lookupKeyPrefix+"provinces").Result()
	s.Require().NoError(err)
	s.Positive(ttl)

	s.Require().NoError(s.store.Delete(ctx, "provinces"))
	_, _, err = s.store.Load(ctx, "provinces")
	s.ErrorIs(err, sentinel.ErrCacheMiss)
}

func (s *RedisStoreIntegrationSuite) TestReplicasShareOneFetch() {
	ctx := context.Background()
	fetcher := &countingFetcher{rows: []Entity{{ID: 1, Label: "Male"}}}
	first := New(fetcher, WithSharedStore(s.store))
	second := New(fetcher, WithSharedStore(s.store))

	s.False(first.Get(ctx, "genders").Failed())
	res := second.Get(ctx, "genders")
	s.False(res.Failed())
	s.Equal(1, fetcher.calls)
}

type countingFetcher struct {
	rows  []Entity
	calls int
}

func (f *countingFetcher) FetchLookup(context.Context, string) ([]Entity, error) {
	f.calls++
	return f.rows, nil
}
