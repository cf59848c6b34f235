package admission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRC = classify.RequestContext{Method: "GET", Path: "/v1/order/orders", Kind: classify.KindPrivate, SubType: "query"}

func newTestLimiter(t *testing.T, opts ...Option) (*Limiter, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	reg := bucket.NewRegistry(bucket.WithClock(clock), bucket.WithLogger(logger.NewNopLogger()))
	opts = append([]Option{WithLogger(logger.NewNopLogger())}, opts...)
	return NewLimiter(reg, opts...), clock
}

func remaining(t *testing.T, l *Limiter, id string) int64 {
	t.Helper()
	b, ok := l.Registry().Get(id)
	require.True(t, ok, id)
	return b.Read().Remaining
}

// GLOBAL 成功、BUSINESS 失败时整体失败，GLOBAL 已扣减的令牌不退还
func TestLimiter_AdmitSync_PartialAdmissionIsNotRefunded(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(t)
	global := &bucket.Config{Capacity: 120, RefillAmount: 120, RefillInterval: 3000 * time.Millisecond}
	business := &bucket.Config{Capacity: 72, RefillAmount: 72, RefillInterval: 3000 * time.Millisecond}
	charges := func() []Charge {
		return []Charge{
			{BucketID: "GLOBAL", Weight: 1, Config: global},
			{BucketID: "BUSINESS", Weight: 1, Config: business},
		}
	}

	for i := 0; i < 72; i++ {
		require.NoError(t, l.AdmitSync(ctx, testRC, charges()...), "call %d", i+1)
	}
	assert.Equal(t, int64(48), remaining(t, l, "GLOBAL"))
	assert.Equal(t, int64(0), remaining(t, l, "BUSINESS"))

	err := l.AdmitSync(ctx, testRC, charges()...)
	require.Error(t, err)

	var admErr *Error
	require.True(t, errors.As(err, &admErr))
	assert.Equal(t, "BUSINESS", admErr.BucketID)
	assert.Equal(t, int64(1), admErr.Weight)
	assert.Equal(t, int64(0), admErr.Remaining)
	assert.Equal(t, int64(72), admErr.Capacity)
	assert.Equal(t, testRC, admErr.Request)
	assert.True(t, admErr.Retryable())
	assert.ErrorIs(t, err, bucket.ErrInsufficientTokens)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.True(t, strings.HasPrefix(err.Error(), "rate limited: bucket BUSINESS"), err.Error())

	assert.Equal(t, int64(47), remaining(t, l, "GLOBAL"), "不退还")

	clock.Advance(3 * time.Second)
	assert.NoError(t, l.AdmitSync(ctx, testRC, charges()...))
	assert.Equal(t, int64(119), remaining(t, l, "GLOBAL"))
	assert.Equal(t, int64(71), remaining(t, l, "BUSINESS"))
}

func TestLimiter_AdmitSync_FirstFailureStops(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t)
	small := &bucket.Config{Capacity: 1, RefillAmount: 1, RefillInterval: time.Second}
	big := &bucket.Config{Capacity: 100, RefillAmount: 100, RefillInterval: time.Second}

	require.NoError(t, l.AdmitSync(ctx, testRC, Charge{BucketID: "S", Weight: 1, Config: small}))
	err := l.AdmitSync(ctx, testRC,
		Charge{BucketID: "S", Weight: 1, Config: small},
		Charge{BucketID: "B", Weight: 5, Config: big},
	)
	assert.ErrorIs(t, err, bucket.ErrInsufficientTokens)
	assert.Equal(t, int64(100), remaining(t, l, "B"), "后续桶未被扣减")
}

func TestLimiter_AdmitSync_ExcessiveWeight(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, WithMaxWeightFactor(10))
	cfg := &bucket.Config{Capacity: 1200, RefillAmount: 1200, RefillInterval: time.Minute}

	for _, w := range []int64{0, -3, 12001, 1 << 50} {
		err := l.AdmitSync(ctx, testRC, Charge{BucketID: "IP", Weight: w, Config: cfg})
		require.Error(t, err, "weight=%d", w)
		assert.ErrorIs(t, err, bucket.ErrExcessiveWeight)
		assert.ErrorIs(t, err, ErrRejected)
		assert.NotErrorIs(t, err, ErrRateLimited, "配置错误不是限流")
		assert.True(t, strings.HasPrefix(err.Error(), "admission rejected: bucket IP"), err.Error())

		var admErr *Error
		require.True(t, errors.As(err, &admErr))
		assert.False(t, admErr.Retryable())
	}

	// 超过容量但在上限之内：同步准入无法满足
	err := l.AdmitSync(ctx, testRC, Charge{BucketID: "IP", Weight: 1201, Config: cfg})
	assert.ErrorIs(t, err, bucket.ErrExcessiveWeight)
	assert.Equal(t, int64(1200), remaining(t, l, "IP"))
}

func TestLimiter_AdmitSync_BucketNotFound(t *testing.T) {
	l, _ := newTestLimiter(t)

	err := l.AdmitSync(context.Background(), testRC, Charge{BucketID: "MISSING", Weight: 1})

	assert.ErrorIs(t, err, bucket.ErrBucketNotFound)
	var admErr *Error
	require.True(t, errors.As(err, &admErr))
	assert.Equal(t, "MISSING", admErr.BucketID)
}

func TestLimiter_AdmitAsync_ChunksAboveCapacity(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(t)
	require.NoError(t, l.Registry().Register(bucket.Spec{
		ID:     "IP",
		Config: bucket.Config{Capacity: 10, RefillAmount: 10, RefillInterval: time.Second},
	}))

	done := make(chan error, 1)
	go func() { done <- l.AdmitAsync(ctx, testRC, "IP", 25) }()

	// 10 + 10 + 5，需要两个补充周期
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("async admission did not complete")
	}
	assert.Equal(t, int64(5), remaining(t, l, "IP"))
}

func TestLimiter_AdmitAsync_Errors(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(t, WithMaxWeightFactor(2))
	require.NoError(t, l.Registry().Register(bucket.Spec{
		ID:     "IP",
		Config: bucket.Config{Capacity: 10, RefillAmount: 10, RefillInterval: time.Second},
	}))

	t.Run("not found", func(t *testing.T) {
		err := l.AdmitAsync(ctx, testRC, "NOPE", 1)
		assert.ErrorIs(t, err, bucket.ErrBucketNotFound)
		assert.NotErrorIs(t, err, ErrRateLimited)
		assert.ErrorIs(t, err, ErrRejected)
	})

	t.Run("above factor", func(t *testing.T) {
		assert.ErrorIs(t, l.AdmitAsync(ctx, testRC, "IP", 21), bucket.ErrExcessiveWeight)
		assert.Equal(t, int64(10), remaining(t, l, "IP"))
	})

	t.Run("cancelled", func(t *testing.T) {
		require.NoError(t, l.AdmitSync(ctx, testRC, Charge{BucketID: "IP", Weight: 10}))

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- l.AdmitAsync(cctx, testRC, "IP", 3) }()

		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		cancel()

		err := <-done
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, ErrRejected)
		assert.NotErrorIs(t, err, ErrRateLimited)
		var admErr *Error
		require.True(t, errors.As(err, &admErr))
		assert.False(t, admErr.Retryable())
	})
}

func TestLimiter_AdmitAsyncCharge_CreatesBucket(t *testing.T) {
	l, _ := newTestLimiter(t)
	cfg := &bucket.Config{Capacity: 5, RefillAmount: 5, RefillInterval: time.Second}

	require.NoError(t, l.AdmitAsyncCharge(context.Background(), testRC, Charge{BucketID: "NEW", Weight: 2, Config: cfg}))
	assert.Equal(t, int64(3), remaining(t, l, "NEW"))
}

func TestNewLimiter_Defaults(t *testing.T) {
	l, _ := newTestLimiter(t, WithMaxWeightFactor(0))
	assert.Equal(t, DefaultMaxWeightFactor, l.MaxWeightFactor())
}
