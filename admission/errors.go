package admission

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/errcode"
)

// ErrRateLimited 令牌不足，稍后可以重试
var ErrRateLimited = errcode.Register(errcode.New(
	errcode.ModuleAdmission, 1, "admission", "error.admission.rate_limited",
	"rate limited", http.StatusTooManyRequests,
))

// ErrRejected 非限流原因的准入失败（权重越界、桶不存在、等待被取消），重试无意义
var ErrRejected = errcode.Register(errcode.New(
	errcode.ModuleAdmission, 2, "admission", "error.admission.rejected",
	"admission rejected", http.StatusBadRequest,
))

// Error 准入失败详情
// Err 是 bucket 包的哨兵错误（ErrInsufficientTokens / ErrExcessiveWeight / ErrBucketNotFound ...）
// 或 ctx 错误；errors.Is 可以直接穿透判断
type Error struct {
	BucketID  string
	Weight    int64
	Remaining int64
	Capacity  int64
	Request   classify.RequestContext
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: bucket %s weight=%d remaining=%d capacity=%d (%s %s %s): %v",
		e.kind().Message(), e.BucketID, e.Weight, e.Remaining, e.Capacity,
		e.Request.Method, e.Request.Path, e.Request.SubType, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 令牌不足匹配 ErrRateLimited，其余匹配 ErrRejected
func (e *Error) Is(target error) bool {
	return target == e.kind()
}

// Retryable 只有令牌不足可以重试
func (e *Error) Retryable() bool {
	return errors.Is(e.Err, bucket.ErrInsufficientTokens)
}

func (e *Error) kind() *errcode.LayeredError {
	if e.Retryable() {
		return ErrRateLimited
	}
	return ErrRejected
}

func newError(rc classify.RequestContext, bucketID string, weight int64, err error) *Error {
	e := &Error{
		BucketID:  bucketID,
		Weight:    weight,
		Remaining: -1,
		Request:   rc,
		Err:       err,
	}
	var acq *bucket.AcquireError
	if errors.As(err, &acq) {
		e.Remaining = acq.Remaining
		e.Capacity = acq.Capacity
		e.Err = acq.Err
	}
	return e
}
