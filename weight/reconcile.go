package weight

import (
	"context"

	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"go.uber.org/zap"
)

// Payer 阻塞扣减令牌（admission.Limiter.AdmitAsync）
type Payer interface {
	AdmitAsync(ctx context.Context, rc classify.RequestContext, bucketID string, weight int64) error
}

// Reconcile 补扣估算不足的额外权重
// delta = actual - estimated；delta<=0 不做任何扣减。
// 补扣失败只记录日志，不影响已完成的调用，返回实际补扣失败的第一个错误供调用方观测。
func Reconcile(ctx context.Context, payer Payer, log *logger.CtxZapLogger, rc classify.RequestContext,
	bucketIDs []string, estimated, actual int64) error {
	delta := actual - estimated
	if delta <= 0 {
		return nil
	}

	var first error
	for _, id := range bucketIDs {
		if err := payer.AdmitAsync(ctx, rc, id, delta); err != nil {
			if log != nil {
				log.WarnCtx(ctx, "weight payback failed",
					zap.String("bucket_id", id),
					zap.String("path", rc.Path),
					zap.String("sub_type", rc.SubType),
					zap.Int64("delta", delta),
					zap.Error(err),
				)
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}
