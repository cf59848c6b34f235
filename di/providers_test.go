package di

import (
	"context"
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/gateway"
	"github.com/KOMKZ/go-yogan-throttle/health"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/KOMKZ/go-yogan-throttle/provider/hyperliquid"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var echo = transport.Func(func(_ context.Context, _, _ string, params any) (any, error) {
	return params, nil
})

func newInjector(t *testing.T, env string) *do.RootScope {
	t.Helper()
	injector := New()
	t.Cleanup(func() { _ = injector.Shutdown() })

	RegisterCoreProviders(injector, ConfigOptions{ConfigPath: "testdata", Env: env})
	do.ProvideValue[transport.Transport](injector, echo)
	return injector
}

func TestRegisterCoreProviders_Gateway(t *testing.T) {
	injector := newInjector(t, "test")

	gw, err := do.Invoke[*gateway.Gateway](injector)
	require.NoError(t, err)
	assert.Equal(t, hyperliquid.Name, gw.Profile().Name())

	cfg := do.MustInvoke[gateway.Config](injector)
	assert.Equal(t, admission.DefaultMaxWeightFactor, cfg.MaxWeightFactor)
	require.Len(t, cfg.Queues, 1)
	assert.Equal(t, 2, cfg.Queues[0].Limit)

	reg := do.MustInvoke[*bucket.Registry](injector)
	assert.Equal(t, []string{hyperliquid.BucketID}, reg.IDs())

	queues := do.MustInvoke[*flowqueue.Manager](injector)
	assert.Equal(t, []string{flowqueue.Key("", "/info")}, queues.Paths())

	resp, err := gw.Call(context.Background(), "POST", "info", hyperliquid.InfoRequest{Type: "l2Book", Coin: "BTC"})
	require.NoError(t, err)
	assert.Equal(t, hyperliquid.InfoRequest{Type: "l2Book", Coin: "BTC"}, resp)
}

func TestRegisterCoreProviders_SharedInstances(t *testing.T) {
	injector := newInjector(t, "test")

	l1 := do.MustInvoke[*admission.Limiter](injector)
	l2 := do.MustInvoke[*admission.Limiter](injector)
	assert.Same(t, l1, l2)
	assert.Same(t, do.MustInvoke[*bucket.Registry](injector), l1.Registry())
}

func TestProvideThrottleConfig_Invalid(t *testing.T) {
	injector := newInjector(t, "broken")

	_, err := do.Invoke[*gateway.Gateway](injector)
	require.Error(t, err)
	assert.ErrorIs(t, err, bucket.ErrInvalidConfig)
}

func TestProvideFlowQueueManager_NoTransport(t *testing.T) {
	injector := New()
	defer injector.Shutdown()
	RegisterCoreProviders(injector, ConfigOptions{ConfigPath: "testdata", Env: "test"})

	_, err := do.Invoke[*flowqueue.Manager](injector)
	assert.Error(t, err)
}

func TestProvideLoggerManager_InvalidLevel(t *testing.T) {
	injector := newInjector(t, "badlog")

	_, err := do.Invoke[*logger.Manager](injector)
	assert.Error(t, err)
}

func TestProvideCtxLogger_FallbackWithoutManager(t *testing.T) {
	injector := New()
	defer injector.Shutdown()
	do.Provide(injector, ProvideCtxLogger("throttle"))

	log, err := do.Invoke[*logger.CtxZapLogger](injector)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestStartCoreComponents(t *testing.T) {
	injector := newInjector(t, "test")
	log := do.MustInvoke[*logger.CtxZapLogger](injector)

	assert.NoError(t, StartCoreComponents(context.Background(), injector, log))
}

func TestProvideHealthAggregator(t *testing.T) {
	injector := newInjector(t, "test")

	agg, err := do.Invoke[*health.Aggregator](injector)
	require.NoError(t, err)
	resp := agg.Check(context.Background())
	assert.True(t, resp.IsHealthy())
	assert.Contains(t, resp.Checks, "throttle.hyperliquid")
	assert.Equal(t, hyperliquid.Name, resp.Metadata["provider"])
}

func TestStartCoreComponents_InvalidConfig(t *testing.T) {
	injector := newInjector(t, "broken")
	log := do.MustInvoke[*logger.CtxZapLogger](injector)

	err := StartCoreComponents(context.Background(), injector, log)
	require.Error(t, err)

	var compErr *ComponentError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, "gateway", compErr.Name)
	assert.ErrorIs(t, err, bucket.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "component gateway unavailable: ")
}
