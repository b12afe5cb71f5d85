package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustline/internal/instance"
	"trustline/internal/instance/codereader"
	"trustline/internal/instance/service"
	"trustline/internal/instance/store"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/requestcontext"
)

var (
	client   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	owner    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	logicV1  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	logicV2  = common.HexToAddress("0x4444444444444444444444444444444444444444")
	nonContr = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	code := codereader.NewStatic(logicV1, logicV2)
	return service.New(store.NewInMemory(), code, nil, "", nil, logger, nil)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("bootstraps an instance", func(t *testing.T) {
		svc := newService(t)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		inst, err := svc.Create(requestcontext.WithTime(ctx, now), client, logicV1, owner)
		require.NoError(t, err)

		assert.Equal(t, client, inst.Client)
		assert.Equal(t, logicV1, inst.LogicAddress)
		assert.Equal(t, owner, inst.Owner)
		assert.Equal(t, instance.DeriveProxyAddress(client, owner), inst.ProxyAddress)
		assert.Equal(t, now, inst.CreatedAt)
		assert.Equal(t, now, inst.UpgradedAt)
	})

	t.Run("second creation conflicts and keeps the first", func(t *testing.T) {
		svc := newService(t)
		first, err := svc.Create(ctx, client, logicV1, owner)
		require.NoError(t, err)

		_, err = svc.Create(ctx, client, logicV2, owner)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))

		found, err := svc.Get(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, first.LogicAddress, found.LogicAddress)
	})

	t.Run("rejects logic without deployed code", func(t *testing.T) {
		svc := newService(t)

		_, err := svc.Create(ctx, client, nonContr, owner)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAContract))
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("missing instances are not_found", func(t *testing.T) {
		svc := newService(t)

		_, err := svc.Get(ctx, client)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestService_Upgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("swaps the logic behind a stable proxy", func(t *testing.T) {
		svc := newService(t)
		created, err := svc.Create(ctx, client, logicV1, owner)
		require.NoError(t, err)

		later := created.CreatedAt.Add(time.Hour)
		upgraded, err := svc.Upgrade(requestcontext.WithTime(ctx, later), client, logicV2)
		require.NoError(t, err)

		assert.Equal(t, logicV2, upgraded.LogicAddress)
		assert.Equal(t, created.ProxyAddress, upgraded.ProxyAddress)
		assert.Equal(t, created.CreatedAt, upgraded.CreatedAt)
		assert.Equal(t, later, upgraded.UpgradedAt)
	})

	t.Run("upgrading a missing instance is not_found", func(t *testing.T) {
		svc := newService(t)

		_, err := svc.Upgrade(ctx, client, logicV2)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("rejects logic without deployed code", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.Create(ctx, client, logicV1, owner)
		require.NoError(t, err)

		_, err = svc.Upgrade(ctx, client, nonContr)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotAContract))

		found, err := svc.Get(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, logicV1, found.LogicAddress)
	})
}

func TestDeriveProxyAddress(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, instance.DeriveProxyAddress(client, owner), instance.DeriveProxyAddress(client, owner))
	})

	t.Run("differs per client and owner", func(t *testing.T) {
		base := instance.DeriveProxyAddress(client, owner)
		assert.NotEqual(t, base, instance.DeriveProxyAddress(owner, client))
		assert.NotEqual(t, base, instance.DeriveProxyAddress(client, client))
	})
}

func TestService_CreateWithoutRPC(t *testing.T) {
	// The default wiring without an Ethereum endpoint uses an empty static
	// reader, which must accept any logic address.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), codereader.NewStatic(), nil, "", nil, logger, nil)

	inst, err := svc.Create(context.Background(), client, logicV1, owner)
	require.NoError(t, err)
	assert.Equal(t, logicV1, inst.LogicAddress)
}

type busRecord struct {
	topic string
	key   []byte
	value []byte
}

type recordingBus struct {
	records []busRecord
	err     error
}

func (b *recordingBus) Publish(_ context.Context, topic string, key, value []byte) error {
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, busRecord{topic: topic, key: key, value: value})
	return nil
}

type deploymentPayload struct {
	Event  string    `json:"event"`
	Client string    `json:"client"`
	Proxy  string    `json:"proxy"`
	Logic  string    `json:"logic"`
	Owner  string    `json:"owner"`
	At     time.Time `json:"at"`
}

func TestService_DeploymentEvents(t *testing.T) {
	newServiceWithBus := func(t *testing.T, bus *recordingBus) *service.Service {
		t.Helper()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		code := codereader.NewStatic(logicV1, logicV2)
		return service.New(store.NewInMemory(), code, bus, "deployments", nil, logger, nil)
	}

	t.Run("creation publishes keyed by client", func(t *testing.T) {
		bus := &recordingBus{}
		svc := newServiceWithBus(t, bus)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		inst, err := svc.Create(requestcontext.WithTime(context.Background(), now), client, logicV1, owner)
		require.NoError(t, err)
		require.Len(t, bus.records, 1)

		rec := bus.records[0]
		assert.Equal(t, "deployments", rec.topic)
		assert.Equal(t, client.Bytes(), rec.key)

		var payload deploymentPayload
		require.NoError(t, json.Unmarshal(rec.value, &payload))
		assert.Equal(t, "created", payload.Event)
		assert.Equal(t, client, common.HexToAddress(payload.Client))
		assert.Equal(t, inst.ProxyAddress, common.HexToAddress(payload.Proxy))
		assert.Equal(t, logicV1, common.HexToAddress(payload.Logic))
		assert.Equal(t, owner, common.HexToAddress(payload.Owner))
		assert.True(t, payload.At.Equal(now))
	})

	t.Run("upgrade publishes the new logic", func(t *testing.T) {
		bus := &recordingBus{}
		svc := newServiceWithBus(t, bus)
		ctx := context.Background()

		_, err := svc.Create(ctx, client, logicV1, owner)
		require.NoError(t, err)
		_, err = svc.Upgrade(ctx, client, logicV2)
		require.NoError(t, err)
		require.Len(t, bus.records, 2)

		var payload deploymentPayload
		require.NoError(t, json.Unmarshal(bus.records[1].value, &payload))
		assert.Equal(t, "upgraded", payload.Event)
		assert.Equal(t, logicV2, common.HexToAddress(payload.Logic))
		assert.Equal(t, instance.DeriveProxyAddress(client, owner), common.HexToAddress(payload.Proxy))
	})

	t.Run("rejected creation publishes nothing", func(t *testing.T) {
		bus := &recordingBus{}
		svc := newServiceWithBus(t, bus)

		_, err := svc.Create(context.Background(), client, nonContr, owner)
		require.Error(t, err)
		assert.Empty(t, bus.records)
	})

	t.Run("publish failure does not fail the operation", func(t *testing.T) {
		bus := &recordingBus{err: errors.New("broker down")}
		svc := newServiceWithBus(t, bus)

		inst, err := svc.Create(context.Background(), client, logicV1, owner)
		require.NoError(t, err)
		assert.NotNil(t, inst)
	})
}
