package huobi

// Business 业务线
type Business string

const (
	Spot       Business = "spot"
	LinearSwap Business = "linear-swap"
)

// PrivateInterface 私有接口类型
type PrivateInterface string

const (
	Trade PrivateInterface = "trade"
	Query PrivateInterface = "query"
)

// PublicInterface 公开接口类型
type PublicInterface string

const (
	Market    PublicInterface = "market"
	NonMarket PublicInterface = "non-market"
)

// Body 请求体变体：PrivateRequest / PublicRequest
type Body interface {
	isBody()
}

// PrivateRequest 需要签名的私有接口，按 AccessKey 限流
type PrivateRequest struct {
	Business  Business
	Interface PrivateInterface
	AccessKey string
	Params    any
}

// PublicRequest 公开接口，按 IP 限流
type PublicRequest struct {
	Business  Business
	Interface PublicInterface
	Params    any
}

func (PrivateRequest) isBody() {}
func (PublicRequest) isBody()  {}
