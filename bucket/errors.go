package bucket

import (
	"fmt"
	"net/http"

	"github.com/KOMKZ/go-yogan-throttle/errcode"
)

var (
	// ErrInsufficientTokens 令牌不足（同步准入被拒绝，可稍后重试）
	ErrInsufficientTokens = errcode.Register(errcode.New(
		errcode.ModuleBucket, 1, "bucket", "error.bucket.insufficient_tokens",
		"insufficient tokens", http.StatusTooManyRequests,
	).AsRetryable())

	// ErrExcessiveWeight 权重非法（<=0 或超过上限），属于配置/编程错误，不应重试
	ErrExcessiveWeight = errcode.Register(errcode.New(
		errcode.ModuleBucket, 2, "bucket", "error.bucket.excessive_weight",
		"excessive weight", http.StatusBadRequest,
	))

	// ErrInvalidConfig 桶配置非法
	ErrInvalidConfig = errcode.Register(errcode.New(
		errcode.ModuleBucket, 3, "bucket", "error.bucket.invalid_config",
		"invalid bucket config", http.StatusBadRequest,
	))

	// ErrBucketNotFound 桶未注册
	ErrBucketNotFound = errcode.Register(errcode.New(
		errcode.ModuleBucket, 4, "bucket", "error.bucket.not_found",
		"bucket not found", http.StatusNotFound,
	))

	// ErrBucketDisposed 桶已释放
	ErrBucketDisposed = errcode.Register(errcode.New(
		errcode.ModuleBucket, 5, "bucket", "error.bucket.disposed",
		"bucket disposed", http.StatusGone,
	))
)

// AcquireError 获取令牌失败的详情
// Unwrap 返回对应的哨兵错误，可用 errors.Is 判断
type AcquireError struct {
	BucketID  string
	Requested int64
	Remaining int64
	Capacity  int64
	Err       *errcode.LayeredError
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("bucket %s: %s (requested=%d remaining=%d capacity=%d)",
		e.BucketID, e.Err.Message(), e.Requested, e.Remaining, e.Capacity)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}
