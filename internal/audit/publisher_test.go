package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustline/internal/audit"
	"trustline/internal/audit/store"
	"trustline/pkg/domain"
	"trustline/pkg/requestcontext"
)

var client = common.HexToAddress("0x1111111111111111111111111111111111111111")

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_Emit(t *testing.T) {
	t.Run("persists and stamps the event", func(t *testing.T) {
		trail := store.NewInMemory()
		publisher := audit.NewPublisher(trail, nil, discard())

		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), now), "req-42")

		publisher.EmitDecision(ctx, client, domain.ModeDapp, false, "sanctioned")

		events, err := trail.ListByClient(ctx, client)
		require.NoError(t, err)
		require.Len(t, events, 1)

		event := events[0]
		assert.Equal(t, audit.ActionDecisionMade, event.Action)
		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.Equal(t, now, event.Timestamp)
		assert.Equal(t, "req-42", event.RequestID)
		assert.False(t, event.Allowed)
		assert.Equal(t, "sanctioned", event.Reason)
		assert.Equal(t, "dapp", event.Mode)
	})

	t.Run("queues the event for export", func(t *testing.T) {
		inbox := make(chan audit.Event, 1)
		publisher := audit.NewPublisher(store.NewInMemory(), inbox, discard())

		publisher.EmitPolicyRegistered(context.Background(), client, domain.ModeMorphoV2)

		select {
		case event := <-inbox:
			assert.Equal(t, audit.ActionPolicyRegistered, event.Action)
		default:
			t.Fatal("expected an exported event")
		}
	})

	t.Run("a full inbox drops the export, not the trail", func(t *testing.T) {
		inbox := make(chan audit.Event) // unbuffered and never drained
		trail := store.NewInMemory()
		publisher := audit.NewPublisher(trail, inbox, discard())

		publisher.EmitInstanceCreated(context.Background(), client)

		events, err := trail.ListByClient(context.Background(), client)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("nil publishers are no-ops", func(t *testing.T) {
		var publisher *audit.Publisher
		publisher.EmitInstanceUpgraded(context.Background(), client)
	})
}

func TestInMemoryStore_ListByClient(t *testing.T) {
	ctx := context.Background()
	trail := store.NewInMemory()
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	require.NoError(t, trail.Append(ctx, audit.Event{Client: client, Action: audit.ActionInstanceCreated}))
	require.NoError(t, trail.Append(ctx, audit.Event{Client: other, Action: audit.ActionInstanceCreated}))
	require.NoError(t, trail.Append(ctx, audit.Event{Client: client, Action: audit.ActionInstanceUpgraded}))

	events, err := trail.ListByClient(ctx, client)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionInstanceCreated, events[0].Action)
	assert.Equal(t, audit.ActionInstanceUpgraded, events[1].Action)
}
