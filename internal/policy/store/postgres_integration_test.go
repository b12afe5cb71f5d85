//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trustline/internal/policy/models"
	"trustline/internal/policy/store"
	"trustline/pkg/domain"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "policies"))
}

func randomClient() common.Address {
	u := uuid.New()
	return common.BytesToAddress(u[:])
}

func (s *PostgresStoreSuite) newPolicy(client common.Address, mode domain.Mode) *models.Policy {
	policy, err := models.NewPolicy(client, mode, []domain.CheckKind{domain.CheckCertificate}, []string{"ofac", "chainalysis"}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return policy
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	client := randomClient()
	policy := s.newPolicy(client, domain.ModeMorphoV2)

	s.Require().NoError(s.store.Create(ctx, policy))

	found, err := s.store.Find(ctx, client)
	s.Require().NoError(err)
	s.Equal(policy.Client, found.Client)
	s.Equal(policy.Mode, found.Mode)
	s.Equal(policy.RequiredChecks, found.RequiredChecks)
	s.Equal(policy.SanctionSources, found.SanctionSources)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), randomClient())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertPreservesCreatedAt() {
	ctx := context.Background()
	client := randomClient()
	original := s.newPolicy(client, domain.ModeDapp)
	s.Require().NoError(s.store.Create(ctx, original))

	replacement := s.newPolicy(client, domain.ModeERC3643)
	replacement.CreatedAt = original.CreatedAt.Add(time.Hour)
	replacement.UpdatedAt = original.CreatedAt.Add(time.Hour)
	s.Require().NoError(s.store.Upsert(ctx, replacement))

	found, err := s.store.Find(ctx, client)
	s.Require().NoError(err)
	s.Equal(domain.ModeERC3643, found.Mode)
	s.Equal(original.CreatedAt, found.CreatedAt)
}

// TestConcurrentCreate verifies the unique constraint makes exactly one of
// many racing registrations win.
func (s *PostgresStoreSuite) TestConcurrentCreate() {
	ctx := context.Background()
	client := randomClient()
	const goroutines = 30

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := s.store.Create(ctx, s.newPolicy(client, domain.ModeDapp))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}
