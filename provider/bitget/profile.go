// Package bitget Bitget REST 流控配置
//
// Bitget 不做令牌计数，部分按周期限频的接口改为经流控队列批量发送：
// 每个周期至多发送 Limit 个请求。队列按 "凭证:路径" 区分，公开接口只按路径。
package bitget

import (
	"time"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/weight"
)

// Name provider 名称
const Name = "bitget"

// Request 请求体；AccessKey 为空表示公开接口
type Request struct {
	AccessKey string
	Params    any
}

// FlowControlled 需要流控的接口
var FlowControlled = map[string]flowqueue.Config{
	"/api/v2/mix/market/funding-time":      {Period: time.Second, Limit: 20},
	"/api/v2/mix/market/history-fund-rate": {Period: time.Second, Limit: 20},
}

var model = &weight.Model{Default: 1}

// Profile Bitget 流控配置
type Profile struct {
	flow map[string]flowqueue.Config
}

// NewProfile 创建配置，extra 追加或覆盖流控接口
func NewProfile(extra ...flowqueue.Spec) *Profile {
	flow := make(map[string]flowqueue.Config, len(FlowControlled)+len(extra))
	for path, cfg := range FlowControlled {
		flow[path] = cfg
	}
	for _, s := range extra {
		flow[s.Path] = s.Config
	}
	return &Profile{flow: flow}
}

func (p *Profile) Name() string { return Name }

func (p *Profile) Model() *weight.Model { return model }

// Buckets 无令牌桶
func (p *Profile) Buckets() []bucket.Spec { return nil }

// Classify 有凭证为私有接口
func (p *Profile) Classify(method, path string, body any) classify.RequestContext {
	rc := classify.RequestContext{Method: method, Path: path, Kind: classify.KindPublic}
	var req Request
	switch b := body.(type) {
	case Request:
		req = b
	case *Request:
		if b != nil {
			req = *b
		}
	}
	if req.AccessKey != "" {
		rc.Kind = classify.KindPrivate
		rc.Credential = req.AccessKey
	}
	return rc
}

// Charges 不计数
func (p *Profile) Charges(classify.RequestContext, int64) []admission.Charge { return nil }

// FlowControl 路径在流控表中时返回队列 key 和配置
func (p *Profile) FlowControl(rc classify.RequestContext) (string, flowqueue.Config, bool) {
	cfg, ok := p.flow[rc.Path]
	if !ok {
		return "", flowqueue.Config{}, false
	}
	return flowqueue.Key(rc.Credential, rc.Path), cfg, true
}

// Params 实现 gateway.ParamsMapper
func (p *Profile) Params(body any) any { return Params(body) }

// Params 取出请求参数交给传输层
func Params(body any) any {
	switch b := body.(type) {
	case Request:
		return b.Params
	case *Request:
		if b != nil {
			return b.Params
		}
		return nil
	}
	return body
}
