package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustline/internal/audit"
	"trustline/internal/audit/worker"
)

type exportedRecord struct {
	topic string
	key   []byte
	value []byte
}

// chanBus hands every published record to the test goroutine. failFirst
// makes the initial publish fail so drop-and-continue can be observed.
type chanBus struct {
	ch        chan exportedRecord
	failFirst bool
	calls     int
}

func (b *chanBus) Publish(_ context.Context, topic string, key, value []byte) error {
	b.calls++
	if b.failFirst && b.calls == 1 {
		return errors.New("broker down")
	}
	b.ch <- exportedRecord{topic: topic, key: key, value: value}
	return nil
}

func testEvent() audit.Event {
	return audit.Event{
		ID:        uuid.New(),
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Action:    audit.ActionDecisionMade,
		Client:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Allowed:   true,
		Reason:    "all_checks_passed",
		Mode:      "dapp",
		RequestID: "req-7",
	}
}

func startWorker(t *testing.T, bus *chanBus, inbox chan audit.Event) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- worker.New(bus, "audit-export", inbox, logger).Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Error("worker did not stop on cancel")
		}
	})
}

func receive(t *testing.T, ch chan exportedRecord) exportedRecord {
	t.Helper()
	select {
	case rec := <-ch:
		return rec
	case <-time.After(time.Second):
		t.Fatal("no record exported")
		return exportedRecord{}
	}
}

func TestWorker_ExportsEvents(t *testing.T) {
	bus := &chanBus{ch: make(chan exportedRecord, 1)}
	inbox := make(chan audit.Event, 1)
	startWorker(t, bus, inbox)

	event := testEvent()
	inbox <- event

	rec := receive(t, bus.ch)
	assert.Equal(t, "audit-export", rec.topic)
	assert.Equal(t, event.Client.Bytes(), rec.key)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.value, &payload))
	assert.Equal(t, event.ID.String(), payload["id"])
	assert.Equal(t, "2026-03-01T12:00:00.000Z", payload["timestamp"])
	assert.Equal(t, "decision_made", payload["action"])
	assert.Equal(t, event.Client.Hex(), payload["client"])
	assert.Equal(t, true, payload["allowed"])
	assert.Equal(t, "all_checks_passed", payload["reason"])
	assert.Equal(t, "dapp", payload["mode"])
	assert.Equal(t, "req-7", payload["request_id"])
}

func TestWorker_DropsFailedExportAndContinues(t *testing.T) {
	bus := &chanBus{ch: make(chan exportedRecord, 2), failFirst: true}
	inbox := make(chan audit.Event, 2)
	startWorker(t, bus, inbox)

	first := testEvent()
	second := testEvent()
	second.RequestID = "req-8"
	inbox <- first
	inbox <- second

	rec := receive(t, bus.ch)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.value, &payload))
	assert.Equal(t, "req-8", payload["request_id"])

	select {
	case <-bus.ch:
		t.Error("dropped event was exported anyway")
	default:
	}
}
