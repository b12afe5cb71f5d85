package service_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustline/internal/policy/service"
	"trustline/internal/policy/store"
	"trustline/pkg/domain"
	dErrors "trustline/pkg/domain-errors"
)

var client = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and retrieves a policy", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), false, "", nil, nil)

		registered, err := svc.Register(ctx, client, domain.ModeMorphoV2, []domain.CheckKind{domain.CheckIdentityRegistry}, []string{"ofac"})
		require.NoError(t, err)
		assert.Equal(t, domain.ModeMorphoV2, registered.Mode)

		found, err := svc.Get(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, registered.Mode, found.Mode)
		assert.Equal(t, registered.SanctionSources, found.SanctionSources)
	})

	t.Run("second registration conflicts when overwrite is off", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), false, "", nil, nil)
		_, err := svc.Register(ctx, client, domain.ModeDapp, nil, nil)
		require.NoError(t, err)

		_, err = svc.Register(ctx, client, domain.ModeMorphoV2, nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
	})

	t.Run("second registration wins when overwrite is on", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), true, "", nil, nil)
		_, err := svc.Register(ctx, client, domain.ModeDapp, nil, nil)
		require.NoError(t, err)

		_, err = svc.Register(ctx, client, domain.ModeMorphoV2, nil, nil)
		require.NoError(t, err)

		found, err := svc.Get(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeMorphoV2, found.Mode)
	})

	t.Run("rejects invalid policies with bad_request", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), false, "", nil, nil)

		_, err := svc.Register(ctx, client, "quantum", nil, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("registered policies win over the default", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), false, domain.ModeDapp, nil, nil)
		_, err := svc.Register(ctx, client, domain.ModeERC3643, nil, nil)
		require.NoError(t, err)

		policy, err := svc.Resolve(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeERC3643, policy.Mode)
	})

	t.Run("unregistered clients fall back to the default mode", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), false, domain.ModeDapp, nil, nil)

		policy, err := svc.Resolve(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, domain.ModeDapp, policy.Mode)
		assert.Equal(t, client, policy.Client)
	})

	t.Run("no default means unregistered clients fail", func(t *testing.T) {
		svc := service.New(store.NewInMemory(), false, "", nil, nil)

		_, err := svc.Resolve(ctx, client)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotRegistered))
	})
}
