package bitget

import (
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/stretchr/testify/assert"
)

func TestProfile_FlowControl(t *testing.T) {
	p := NewProfile()

	rc := p.Classify("GET", "/api/v2/mix/market/funding-time", Request{Params: map[string]any{"symbol": "BTCUSDT"}})
	assert.Equal(t, classify.KindPublic, rc.Kind)

	key, cfg, ok := p.FlowControl(rc)
	assert.True(t, ok)
	assert.Equal(t, "PUBLIC:/api/v2/mix/market/funding-time", key)
	assert.Equal(t, flowqueue.Config{Period: time.Second, Limit: 20}, cfg)

	private := p.Classify("GET", "/api/v2/mix/market/history-fund-rate", &Request{AccessKey: "ak"})
	assert.Equal(t, classify.KindPrivate, private.Kind)
	key, _, ok = p.FlowControl(private)
	assert.True(t, ok)
	assert.Equal(t, "ak:/api/v2/mix/market/history-fund-rate", key)

	_, _, ok = p.FlowControl(p.Classify("GET", "/api/v2/mix/account/accounts", nil))
	assert.False(t, ok, "未列出的接口直接发送")
}

func TestProfile_ExtraFlowControlled(t *testing.T) {
	p := NewProfile(flowqueue.Spec{Path: "/api/v2/mix/order/fill-history", Config: flowqueue.Config{Period: 2 * time.Second, Limit: 5}})

	_, cfg, ok := p.FlowControl(classify.RequestContext{Path: "/api/v2/mix/order/fill-history"})
	assert.True(t, ok)
	assert.Equal(t, 5, cfg.Limit)

	_, _, ok = p.FlowControl(classify.RequestContext{Path: "/api/v2/mix/market/funding-time"})
	assert.True(t, ok)
}

func TestProfile_NoCharges(t *testing.T) {
	p := NewProfile()
	rc := p.Classify("GET", "/x", nil)

	assert.Empty(t, p.Charges(rc, p.Model().Estimate(rc).Total()))
	assert.Empty(t, p.Buckets())
}

func TestParams(t *testing.T) {
	params := map[string]any{"symbol": "BTCUSDT"}
	assert.Equal(t, params, Params(Request{Params: params}))
	assert.Equal(t, params, Params(&Request{Params: params}))
	assert.Nil(t, Params((*Request)(nil)))
	assert.Equal(t, "raw", Params("raw"))
}
