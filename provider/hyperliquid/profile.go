// Package hyperliquid Hyperliquid REST 限流配置
//
// 所有 REST 请求共享一个 IP 权重桶（1200/分钟）。info 请求按 type 查表，
// exchange 批量动作按条目数计权，candleSnapshot 等可变长度结果在响应后按实际条目数补扣。
package hyperliquid

import (
	"net/http"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/weight"
)

const (
	// Name provider 名称
	Name = "hyperliquid"

	// BucketID REST IP 权重桶
	BucketID = "HYPERLIQUID_REST_IP_WEIGHT_1200_PER_MIN"

	// MaxWeightFactor 单次权重上限 = 1200 * 10
	MaxWeightFactor = 10
)

// BucketConfig 1200 / 60s
var BucketConfig = bucket.Config{Capacity: 1200, RefillAmount: 1200, RefillInterval: time.Minute}

// fillsTypes 按 20 条计 1 权重、响应后统计的 info 类型
var fillsTypes = []string{
	"recentTrades", "historicalOrders", "userFills", "userFillsByTime",
	"fundingHistory", "userFunding", "nonUserFundingUpdates", "twapHistory",
	"userTwapSliceFills", "userTwapSliceFillsByTime",
	"delegatorHistory", "delegatorRewards", "validatorStats",
}

var model = &weight.Model{
	Default: 20,
	KindBase: map[classify.Kind]int64{
		classify.KindExplorer: 40,
		classify.KindOther:    20,
	},
	SubTypeBase: map[classify.Kind]map[string]int64{
		classify.KindInfo: {
			"l2Book":                 2,
			"allMids":                2,
			"clearinghouseState":     2,
			"orderStatus":            2,
			"spotClearinghouseState": 2,
			"exchangeStatus":         2,
			"userRole":               60,
		},
	},
	Batch: map[classify.Kind]int64{classify.KindExchange: 40},
	Extras: []weight.ExtraRule{
		// 只提供最近 5000 根 K 线
		{Kind: classify.KindInfo, SubTypes: []string{"candleSnapshot"}, Divisor: 60, MaxItems: 5000},
		{Kind: classify.KindInfo, SubTypes: fillsTypes, Divisor: 20, Count: weight.CountField("fills")},
	},
}

// Profile Hyperliquid 限流配置
type Profile struct{}

// NewProfile 创建配置
func NewProfile() *Profile {
	return &Profile{}
}

func (p *Profile) Name() string { return Name }

func (p *Profile) Model() *weight.Model { return model }

// Buckets 需要预先注册的桶
func (p *Profile) Buckets() []bucket.Spec {
	return []bucket.Spec{{ID: BucketID, Config: BucketConfig}}
}

// Classify 按路径和请求体分类，路径可带或不带前导 "/"
func (p *Profile) Classify(method, path string, body any) classify.RequestContext {
	rc := classify.RequestContext{Method: method, Path: path, Kind: classify.KindOther}
	p2 := strings.TrimPrefix(path, "/")

	switch {
	case method == http.MethodPost && p2 == "info":
		rc.Kind = classify.KindInfo
		if req, ok := infoRequest(body); ok {
			rc.SubType = req.Type
			rc.Span = candleSpan(req)
		}
	case method == http.MethodPost && p2 == "exchange":
		rc.Kind = classify.KindExchange
		rc.BatchLength = 1
		if req, ok := exchangeRequest(body); ok {
			rc.SubType = req.Action.Type
			rc.BatchLength = batchLength(req.Action)
		}
	case strings.HasPrefix(p2, "explorer"):
		rc.Kind = classify.KindExplorer
		if req, ok := body.(ExplorerRequest); ok {
			rc.SubType = req.Type
		} else if req, ok := body.(*ExplorerRequest); ok && req != nil {
			rc.SubType = req.Type
		}
	}
	return rc
}

// Charges 所有请求只计入 IP 权重桶
func (p *Profile) Charges(_ classify.RequestContext, w int64) []admission.Charge {
	cfg := BucketConfig
	return []admission.Charge{{BucketID: BucketID, Weight: w, Config: &cfg}}
}

// FlowControl 不使用流控队列
func (p *Profile) FlowControl(classify.RequestContext) (string, flowqueue.Config, bool) {
	return "", flowqueue.Config{}, false
}

func infoRequest(body any) (InfoRequest, bool) {
	switch b := body.(type) {
	case InfoRequest:
		return b, true
	case *InfoRequest:
		if b != nil {
			return *b, true
		}
	}
	return InfoRequest{}, false
}

func exchangeRequest(body any) (ExchangeRequest, bool) {
	switch b := body.(type) {
	case ExchangeRequest:
		return b, true
	case *ExchangeRequest:
		if b != nil {
			return *b, true
		}
	}
	return ExchangeRequest{}, false
}

// batchLength 有 orders 时按 orders 计，否则按 cancels 计，至少为 1
func batchLength(a Action) int {
	if a.Orders != nil {
		return classify.BatchLength(len(a.Orders))
	}
	return classify.BatchLength(len(a.Cancels))
}

func candleSpan(req InfoRequest) *classify.Span {
	if req.Type != "candleSnapshot" || req.Req == nil {
		return nil
	}
	ms, ok := IntervalMs(req.Req.Interval)
	if !ok {
		return nil
	}
	return &classify.Span{StartMs: req.Req.StartTime, EndMs: req.Req.EndTime, IntervalMs: ms}
}
