package weight

import (
	"testing"

	"github.com/KOMKZ/go-yogan-throttle/classify"
	"github.com/stretchr/testify/assert"
)

func testModel() *Model {
	return &Model{
		Default:  20,
		KindBase: map[classify.Kind]int64{classify.KindExplorer: 40},
		SubTypeBase: map[classify.Kind]map[string]int64{
			classify.KindInfo: {"l2Book": 2, "userRole": 60},
		},
		Batch: map[classify.Kind]int64{classify.KindExchange: 40},
		Extras: []ExtraRule{
			{Kind: classify.KindInfo, SubTypes: []string{"candleSnapshot"}, Divisor: 60, MaxItems: 5000},
			{Kind: classify.KindInfo, SubTypes: []string{"userFills"}, Divisor: 20, Count: CountField("fills")},
		},
	}
}

func TestModel_Base(t *testing.T) {
	m := testModel()

	tests := []struct {
		name string
		rc   classify.RequestContext
		want int64
	}{
		{"subtype table", classify.RequestContext{Kind: classify.KindInfo, SubType: "l2Book"}, 2},
		{"heavy subtype", classify.RequestContext{Kind: classify.KindInfo, SubType: "userRole"}, 60},
		{"unknown subtype falls back to default", classify.RequestContext{Kind: classify.KindInfo, SubType: "meta"}, 20},
		{"kind table", classify.RequestContext{Kind: classify.KindExplorer}, 40},
		{"other", classify.RequestContext{Kind: classify.KindOther}, 20},
		{"batch of 79", classify.RequestContext{Kind: classify.KindExchange, BatchLength: 79}, 2},
		{"batch of 1", classify.RequestContext{Kind: classify.KindExchange, BatchLength: 1}, 1},
		{"batch of 0 treated as 1", classify.RequestContext{Kind: classify.KindExchange}, 1},
		{"batch of 80", classify.RequestContext{Kind: classify.KindExchange, BatchLength: 80}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Base(tt.rc))
		})
	}

	assert.Equal(t, int64(1), (&Model{}).Base(classify.RequestContext{}), "空模型至少为 1")
}

func TestModel_EstimateExtra(t *testing.T) {
	m := testModel()
	candle := func(start, end, interval int64) classify.RequestContext {
		return classify.RequestContext{
			Kind: classify.KindInfo, SubType: "candleSnapshot",
			Span: &classify.Span{StartMs: start, EndMs: end, IntervalMs: interval},
		}
	}

	// 10000 个区间截断为 5000，ceil(5000/60) = 84
	assert.Equal(t, int64(84), m.EstimateExtra(candle(0, 600_000_000, 60_000)))
	assert.Equal(t, int64(1), m.EstimateExtra(candle(0, 60_000, 60_000)))
	assert.Equal(t, int64(2), m.EstimateExtra(candle(0, 61*60_000, 60_000)))
	assert.Equal(t, int64(1), m.EstimateExtra(candle(0, 1, 60_000)), "不足一个区间向上取整")
	assert.Equal(t, int64(0), m.EstimateExtra(candle(10, 10, 60_000)))
	assert.Equal(t, int64(0), m.EstimateExtra(candle(10, 5, 60_000)))
	assert.Equal(t, int64(0), m.EstimateExtra(candle(0, 100, 0)))

	noSpan := classify.RequestContext{Kind: classify.KindInfo, SubType: "candleSnapshot"}
	assert.Equal(t, int64(0), m.EstimateExtra(noSpan))

	fills := classify.RequestContext{Kind: classify.KindInfo, SubType: "userFills",
		Span: &classify.Span{StartMs: 0, EndMs: 1_000_000, IntervalMs: 1}}
	assert.Equal(t, int64(0), m.EstimateExtra(fills), "无上限的规则不做估算")

	est := m.Estimate(candle(0, 600_000_000, 60_000))
	assert.Equal(t, Estimate{Base: 20, Extra: 84}, est)
	assert.Equal(t, int64(104), est.Total())
}

func TestModel_ActualExtra(t *testing.T) {
	m := testModel()
	candle := classify.RequestContext{Kind: classify.KindInfo, SubType: "candleSnapshot"}
	fills := classify.RequestContext{Kind: classify.KindInfo, SubType: "userFills"}

	assert.Equal(t, int64(2), m.ActualExtra(candle, make([]any, 61)))
	assert.Equal(t, int64(0), m.ActualExtra(candle, []any{}))
	assert.Equal(t, int64(0), m.ActualExtra(candle, map[string]any{"x": 1}))

	assert.Equal(t, int64(3), m.ActualExtra(fills, map[string]any{"fills": make([]any, 41)}))
	assert.Equal(t, int64(1), m.ActualExtra(fills, make([]any, 20)))

	l2 := classify.RequestContext{Kind: classify.KindInfo, SubType: "l2Book"}
	assert.Equal(t, int64(0), m.ActualExtra(l2, make([]any, 1000)))
}

func TestCountItems(t *testing.T) {
	arr := []int{1, 2, 3}
	var nilSlice *[]int

	assert.Equal(t, int64(3), CountItems(arr))
	assert.Equal(t, int64(3), CountItems(&arr))
	assert.Equal(t, int64(2), CountItems([2]string{}))
	assert.Equal(t, int64(0), CountItems(nil))
	assert.Equal(t, int64(0), CountItems(nilSlice))
	assert.Equal(t, int64(0), CountItems("abc"))
}
