// Package service orchestrates instance creation and logic upgrades.
// Creation is one-time per client; upgrades swap the logic pointer behind
// the stable proxy address.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"trustline/internal/audit"
	"trustline/internal/instance"
	"trustline/internal/instance/codereader"
	instancemetrics "trustline/internal/instance/metrics"
	dErrors "trustline/pkg/domain-errors"
	"trustline/pkg/platform/sentinel"
	"trustline/pkg/requestcontext"
)

// Store is the persistence port for instances.
type Store interface {
	Create(ctx context.Context, inst *instance.Instance) error
	Find(ctx context.Context, client common.Address) (*instance.Instance, error)
	UpdateLogic(ctx context.Context, client, logic common.Address, upgradedAt time.Time) (*instance.Instance, error)
}

// EventPublisher exports deployment events to the message bus. Records
// sharing a key land on the same partition.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service manages per-client engine instances.
type Service struct {
	store  Store
	code   codereader.Reader
	events EventPublisher
	topic  string

	auditor *audit.Publisher
	logger  *slog.Logger
	metrics *instancemetrics.Metrics
}

// New constructs the instance service. A nil events publisher disables
// deployment event export.
func New(store Store, code codereader.Reader, events EventPublisher, topic string, auditor *audit.Publisher, logger *slog.Logger, m *instancemetrics.Metrics) *Service {
	return &Service{
		store:   store,
		code:    code,
		events:  events,
		topic:   topic,
		auditor: auditor,
		logger:  logger,
		metrics: m,
	}
}

// Create bootstraps a client's instance. A second creation for the same
// client fails with already_initialized; the first instance is untouched.
func (s *Service) Create(ctx context.Context, client, logic, owner common.Address) (*instance.Instance, error) {
	if err := s.requireContract(ctx, logic); err != nil {
		s.metrics.RecordCreation("rejected")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	inst := &instance.Instance{
		Client:       client,
		ProxyAddress: instance.DeriveProxyAddress(client, owner),
		LogicAddress: logic,
		Owner:        owner,
		CreatedAt:    now,
		UpgradedAt:   now,
	}

	if err := s.store.Create(ctx, inst); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.RecordCreation("conflict")
			return nil, dErrors.New(dErrors.CodeAlreadyInitialized, "client instance already initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store instance")
	}

	s.metrics.RecordCreation("created")
	s.auditor.EmitInstanceCreated(ctx, client)
	s.publishDeployment(ctx, "created", inst)

	s.logger.InfoContext(ctx, "instance created",
		"request_id", requestcontext.RequestID(ctx),
		"client", client,
		"proxy", inst.ProxyAddress,
		"logic", logic,
	)
	return inst, nil
}

// Get returns the client's instance.
func (s *Service) Get(ctx context.Context, client common.Address) (*instance.Instance, error) {
	inst, err := s.store.Find(ctx, client)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client instance not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "instance lookup failed")
	}
	return inst, nil
}

// Upgrade swaps the instance's logic pointer. The proxy address never
// changes; readers observe either the old or the new logic, never a mix.
func (s *Service) Upgrade(ctx context.Context, client, logic common.Address) (*instance.Instance, error) {
	if err := s.requireContract(ctx, logic); err != nil {
		s.metrics.RecordUpgrade("rejected")
		return nil, err
	}

	inst, err := s.store.UpdateLogic(ctx, client, logic, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordUpgrade("missing")
			return nil, dErrors.New(dErrors.CodeNotFound, "client instance not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to swap logic")
	}

	s.metrics.RecordUpgrade("upgraded")
	s.auditor.EmitInstanceUpgraded(ctx, client)
	s.publishDeployment(ctx, "upgraded", inst)

	s.logger.InfoContext(ctx, "instance upgraded",
		"request_id", requestcontext.RequestID(ctx),
		"client", client,
		"logic", logic,
	)
	return inst, nil
}

// requireContract rejects logic addresses without deployed code.
func (s *Service) requireContract(ctx context.Context, logic common.Address) error {
	code, err := s.code.CodeAt(ctx, logic)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "code lookup failed")
	}
	if len(code) == 0 {
		return dErrors.Newf(dErrors.CodeNotAContract, "no contract code at %s", logic)
	}
	return nil
}

// deploymentEvent is the wire format consumed by off-chain indexers.
type deploymentEvent struct {
	Event  string    `json:"event"`
	Client string    `json:"client"`
	Proxy  string    `json:"proxy"`
	Logic  string    `json:"logic"`
	Owner  string    `json:"owner"`
	At     time.Time `json:"at"`
}

// publishDeployment exports the event keyed by client so one client's
// deployments stay ordered per partition. Best effort.
func (s *Service) publishDeployment(ctx context.Context, event string, inst *instance.Instance) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(deploymentEvent{
		Event:  event,
		Client: inst.Client.Hex(),
		Proxy:  inst.ProxyAddress.Hex(),
		Logic:  inst.LogicAddress.Hex(),
		Owner:  inst.Owner.Hex(),
		At:     requestcontext.Now(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "deployment event marshal failed", "error", err)
		return
	}

	if err := s.events.Publish(ctx, s.topic, inst.Client.Bytes(), payload); err != nil {
		s.logger.WarnContext(ctx, "deployment event publish failed",
			"client", inst.Client,
			"error", err,
		)
	}
}
