// Package huobi Huobi(HTX) REST 限流配置
//
// 私有接口按 UID（AccessKey）限流：同一接口类型下全部业务线一个桶，每条业务线一个桶，
// 两个桶都要扣减。公开接口按 IP 限流，行情类和非行情类分开。每次调用权重为 1。
package huobi

import (
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/weight"
)

// Name provider 名称
const Name = "huobi"

// 公开接口桶
const (
	MarketAllBucketID        = "HUOBI_PUBLIC_MARKET_IP_1S_ALL"
	MarketSpotBucketID       = "HUOBI_PUBLIC_MARKET_IP_1S_SPOT"
	MarketLinearSwapBucketID = "HUOBI_PUBLIC_MARKET_IP_1S_LINEAR_SWAP"
	NonMarketBucketID        = "HUOBI_PUBLIC_NON_MARKET_IP_3S_ALL"
)

var (
	// PrivateBucketConfig 36 / 3s
	PrivateBucketConfig = bucket.Config{Capacity: 36, RefillAmount: 36, RefillInterval: 3 * time.Second}

	// MarketBucketConfig 800 / 1s
	MarketBucketConfig = bucket.Config{Capacity: 800, RefillAmount: 800, RefillInterval: time.Second}

	// NonMarketBucketConfig 120 / 3s
	NonMarketBucketConfig = bucket.Config{Capacity: 120, RefillAmount: 120, RefillInterval: 3 * time.Second}
)

var model = &weight.Model{Default: 1}

// PrivateBucketIDs 私有接口的两个桶：全部业务线 + 当前业务线
func PrivateBucketIDs(iface PrivateInterface, business Business, accessKey string) (all, scoped string) {
	prefix := "HUOBI_PRIVATE_" + strings.ToUpper(string(iface)) + "_UID_3S_"
	return prefix + "ALL:" + accessKey, prefix + strings.ToUpper(string(business)) + ":" + accessKey
}

// Profile Huobi 限流配置
type Profile struct{}

// NewProfile 创建配置
func NewProfile() *Profile {
	return &Profile{}
}

func (p *Profile) Name() string { return Name }

func (p *Profile) Model() *weight.Model { return model }

// Buckets 公开接口桶，私有接口桶按 AccessKey 惰性创建
func (p *Profile) Buckets() []bucket.Spec {
	return []bucket.Spec{
		{ID: MarketAllBucketID, Config: MarketBucketConfig},
		{ID: MarketSpotBucketID, Config: MarketBucketConfig},
		{ID: MarketLinearSwapBucketID, Config: MarketBucketConfig},
		{ID: NonMarketBucketID, Config: NonMarketBucketConfig},
	}
}

// Classify 按请求体变体分类：SubType 为接口类型，Scope 为业务线
func (p *Profile) Classify(method, path string, body any) classify.RequestContext {
	rc := classify.RequestContext{Method: method, Path: path, Kind: classify.KindOther}

	switch b := body.(type) {
	case PrivateRequest:
		fillPrivate(&rc, b)
	case *PrivateRequest:
		if b != nil {
			fillPrivate(&rc, *b)
		}
	case PublicRequest:
		fillPublic(&rc, b)
	case *PublicRequest:
		if b != nil {
			fillPublic(&rc, *b)
		}
	}
	return rc
}

// Charges 按顺序扣减：先全局桶再业务线桶
func (p *Profile) Charges(rc classify.RequestContext, w int64) []admission.Charge {
	switch rc.Kind {
	case classify.KindPrivate:
		all, scoped := PrivateBucketIDs(PrivateInterface(rc.SubType), Business(rc.Scope), rc.Credential)
		cfg := PrivateBucketConfig
		return []admission.Charge{
			{BucketID: all, Weight: w, Config: &cfg},
			{BucketID: scoped, Weight: w, Config: &cfg},
		}
	case classify.KindPublic:
		if PublicInterface(rc.SubType) == NonMarket {
			return []admission.Charge{charge(NonMarketBucketID, w, NonMarketBucketConfig)}
		}
		scoped := MarketSpotBucketID
		if Business(rc.Scope) == LinearSwap {
			scoped = MarketLinearSwapBucketID
		}
		return []admission.Charge{
			charge(MarketAllBucketID, w, MarketBucketConfig),
			charge(scoped, w, MarketBucketConfig),
		}
	}
	return nil
}

// FlowControl 不使用流控队列
func (p *Profile) FlowControl(classify.RequestContext) (string, flowqueue.Config, bool) {
	return "", flowqueue.Config{}, false
}

// Params 取出请求参数交给传输层（实现 gateway.ParamsMapper）
func (p *Profile) Params(body any) any {
	switch b := body.(type) {
	case PrivateRequest:
		return b.Params
	case *PrivateRequest:
		if b != nil {
			return b.Params
		}
		return nil
	case PublicRequest:
		return b.Params
	case *PublicRequest:
		if b != nil {
			return b.Params
		}
		return nil
	}
	return body
}

func charge(id string, w int64, cfg bucket.Config) admission.Charge {
	return admission.Charge{BucketID: id, Weight: w, Config: &cfg}
}

func fillPrivate(rc *classify.RequestContext, b PrivateRequest) {
	rc.Kind = classify.KindPrivate
	rc.SubType = string(b.Interface)
	rc.Scope = string(b.Business)
	rc.Credential = b.AccessKey
}

func fillPublic(rc *classify.RequestContext, b PublicRequest) {
	rc.Kind = classify.KindPublic
	rc.SubType = string(b.Interface)
	rc.Scope = string(b.Business)
}
