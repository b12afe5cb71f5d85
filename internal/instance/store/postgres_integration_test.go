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

	"trustline/internal/instance/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "instances"))
}

func randomClient() common.Address {
	u := uuid.New()
	return common.BytesToAddress(u[:])
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	client := randomClient()
	inst := newInstance(client)
	inst.CreatedAt = inst.CreatedAt.Truncate(time.Microsecond)
	inst.UpgradedAt = inst.CreatedAt

	s.Require().NoError(s.store.Create(ctx, inst))

	found, err := s.store.Find(ctx, client)
	s.Require().NoError(err)
	s.Equal(inst.Client, found.Client)
	s.Equal(inst.ProxyAddress, found.ProxyAddress)
	s.Equal(inst.LogicAddress, found.LogicAddress)
	s.Equal(inst.Owner, found.Owner)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), randomClient())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateLogic() {
	ctx := context.Background()
	client := randomClient()
	inst := newInstance(client)
	s.Require().NoError(s.store.Create(ctx, inst))

	newLogic := common.HexToAddress("0x4444444444444444444444444444444444444444")
	upgradedAt := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

	updated, err := s.store.UpdateLogic(ctx, client, newLogic, upgradedAt)
	s.Require().NoError(err)
	s.Equal(newLogic, updated.LogicAddress)
	s.Equal(inst.ProxyAddress, updated.ProxyAddress)
	s.Equal(upgradedAt, updated.UpgradedAt.UTC())
}

func (s *PostgresStoreSuite) TestUpdateLogicMissing() {
	_, err := s.store.UpdateLogic(context.Background(), randomClient(), common.Address{}, time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCreate verifies the primary key makes exactly one of many
// racing bootstraps win.
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

			err := s.store.Create(ctx, newInstance(client))
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
