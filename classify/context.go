// Package classify 请求分类结果
//
// 各 provider 包把调用方构造的请求变体映射为 RequestContext，
// 相同输入总是得到相同结果，不做任何 I/O。
package classify

// Kind 请求大类，由路径精确匹配决定
type Kind string

const (
	KindInfo     Kind = "info"
	KindExchange Kind = "exchange"
	KindExplorer Kind = "explorer"
	KindPrivate  Kind = "private"
	KindPublic   Kind = "public"
	KindOther    Kind = "other"
)

// Span 可变长度结果的请求区间（毫秒）
type Span struct {
	StartMs    int64
	EndMs      int64
	IntervalMs int64
}

// RequestContext 单次外呼的分类结果
type RequestContext struct {
	Method  string
	Path    string
	Kind    Kind
	SubType string

	// BatchLength 批量动作的条目数，>=1；非批量请求为 0
	BatchLength int

	// Scope 业务线（如 spot / linear-swap），Credential 凭证标识
	Scope      string
	Credential string

	Span *Span
}

// Classifier 把 (method, path, body) 映射为 RequestContext
type Classifier interface {
	Classify(method, path string, body any) RequestContext
}

// ClassifierFunc 函数形式的 Classifier
type ClassifierFunc func(method, path string, body any) RequestContext

func (f ClassifierFunc) Classify(method, path string, body any) RequestContext {
	return f(method, path, body)
}

// BatchLength max(1, n)
func BatchLength(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
