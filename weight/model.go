// Package weight 请求权重模型
//
// 权重 = 基础权重 + 额外权重。额外权重针对结果长度可变的请求：
// 调用前按请求参数估算，调用后按实际条目数计算，差额通过 Reconcile 补扣。
package weight

import (
	"reflect"
	"slices"

	"github.com/KOMKZ/go-yogan-throttle/classify"
)

// ItemCounter 统计响应中的条目数
type ItemCounter func(resp any) int64

// ExtraRule 可变长度结果的额外权重规则
type ExtraRule struct {
	Kind     classify.Kind
	SubTypes []string

	// Divisor 每 Divisor 个条目计 1 权重
	Divisor int64

	// MaxItems 估算时的条目上限（provider 文档值），0 表示不估算
	MaxItems int64

	// Count 为 nil 时使用 CountItems
	Count ItemCounter
}

func (r ExtraRule) matches(rc classify.RequestContext) bool {
	return r.Kind == rc.Kind && slices.Contains(r.SubTypes, rc.SubType)
}

// Model 权重模型
type Model struct {
	// Default 未知子类型的默认权重
	Default int64

	// KindBase 按大类的基础权重
	KindBase map[classify.Kind]int64

	// SubTypeBase 按子类型的基础权重，优先于 KindBase
	SubTypeBase map[classify.Kind]map[string]int64

	// Batch 批量大类的除数：base = 1 + floor(batchLength / divisor)
	Batch map[classify.Kind]int64

	Extras []ExtraRule
}

// Base 基础权重，总是 >= 1
func (m *Model) Base(rc classify.RequestContext) int64 {
	if divisor, ok := m.Batch[rc.Kind]; ok && divisor > 0 {
		return 1 + int64(classify.BatchLength(rc.BatchLength))/divisor
	}
	if table, ok := m.SubTypeBase[rc.Kind]; ok {
		if w, ok := table[rc.SubType]; ok {
			return w
		}
	}
	if w, ok := m.KindBase[rc.Kind]; ok {
		return w
	}
	if m.Default > 0 {
		return m.Default
	}
	return 1
}

// EstimateExtra 调用前估算的额外权重
// items = ceil((end-start)/interval)，截断到 [0, MaxItems]，再 ceil(items/Divisor)
func (m *Model) EstimateExtra(rc classify.RequestContext) int64 {
	rule, ok := m.rule(rc)
	if !ok || rule.MaxItems <= 0 || rc.Span == nil || rc.Span.IntervalMs <= 0 {
		return 0
	}

	span := rc.Span.EndMs - rc.Span.StartMs
	if span <= 0 {
		return 0
	}
	items := ceilDiv(span, rc.Span.IntervalMs)
	if items > rule.MaxItems {
		items = rule.MaxItems
	}
	return ceilDiv(items, rule.Divisor)
}

// ActualExtra 按响应实际条目数计算的额外权重
func (m *Model) ActualExtra(rc classify.RequestContext, resp any) int64 {
	rule, ok := m.rule(rc)
	if !ok {
		return 0
	}
	count := rule.Count
	if count == nil {
		count = CountItems
	}
	items := count(resp)
	if items <= 0 {
		return 0
	}
	return ceilDiv(items, rule.Divisor)
}

// Estimate 调用前的总权重
func (m *Model) Estimate(rc classify.RequestContext) Estimate {
	return Estimate{Base: m.Base(rc), Extra: m.EstimateExtra(rc)}
}

func (m *Model) rule(rc classify.RequestContext) (ExtraRule, bool) {
	for _, r := range m.Extras {
		if r.Divisor > 0 && r.matches(rc) {
			return r, true
		}
	}
	return ExtraRule{}, false
}

// Estimate 权重估算
type Estimate struct {
	Base  int64
	Extra int64
}

// Total 基础 + 额外
func (e Estimate) Total() int64 {
	return e.Base + e.Extra
}

// CountItems 顶层数组的长度；其他类型计 0
func CountItems(resp any) int64 {
	if resp == nil {
		return 0
	}
	v := reflect.ValueOf(resp)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		return int64(v.Len())
	}
	return 0
}

// CountField 对象字段 field 下数组的长度，响应本身是数组时返回数组长度
func CountField(field string) ItemCounter {
	return func(resp any) int64 {
		if obj, ok := resp.(map[string]any); ok {
			return CountItems(obj[field])
		}
		return CountItems(resp)
	}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
