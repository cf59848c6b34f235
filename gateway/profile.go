package gateway

import (
	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/weight"
)

// Profile 单个 provider 的限流规则
type Profile interface {
	Name() string

	// Classify 为纯函数，不做 I/O
	classify.Classifier

	Model() *weight.Model

	// Buckets 启动时预先注册的桶
	Buckets() []bucket.Spec

	// Charges 一次调用需要扣减的桶，按扣减顺序排列；为空表示不计数
	Charges(rc classify.RequestContext, weight int64) []admission.Charge

	// FlowControl 需要经流控队列发送时返回队列 key 和配置
	FlowControl(rc classify.RequestContext) (key string, cfg flowqueue.Config, ok bool)
}

// ParamsMapper 可选接口：把请求体变体转换为传输层参数
type ParamsMapper interface {
	Params(body any) any
}
