package hyperliquid

// Body 请求体变体：InfoRequest / ExchangeRequest / ExplorerRequest
type Body interface {
	isBody()
}

// InfoRequest POST /info
type InfoRequest struct {
	Type      string         `json:"type"`
	User      string         `json:"user,omitempty"`
	Coin      string         `json:"coin,omitempty"`
	Oid       any            `json:"oid,omitempty"`
	StartTime *int64         `json:"startTime,omitempty"`
	EndTime   *int64         `json:"endTime,omitempty"`
	Req       *CandleRequest `json:"req,omitempty"`
}

// CandleRequest candleSnapshot 的 req 字段
type CandleRequest struct {
	Coin      string `json:"coin"`
	Interval  string `json:"interval"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// ExchangeRequest POST /exchange
type ExchangeRequest struct {
	Action    Action `json:"action"`
	Nonce     int64  `json:"nonce"`
	Signature any    `json:"signature,omitempty"`
}

// Action 交易动作；批量动作携带 Orders 或 Cancels
type Action struct {
	Type     string `json:"type"`
	Orders   []any  `json:"orders,omitempty"`
	Cancels  []any  `json:"cancels,omitempty"`
	Grouping string `json:"grouping,omitempty"`
}

// ExplorerRequest explorer 前缀路径
type ExplorerRequest struct {
	Type string `json:"type"`
	Hash string `json:"hash,omitempty"`
	User string `json:"user,omitempty"`
}

func (InfoRequest) isBody()     {}
func (ExchangeRequest) isBody() {}
func (ExplorerRequest) isBody() {}

// Candle 构造 candleSnapshot 请求
func Candle(coin, interval string, startMs, endMs int64) InfoRequest {
	return InfoRequest{
		Type: "candleSnapshot",
		Req:  &CandleRequest{Coin: coin, Interval: interval, StartTime: startMs, EndTime: endMs},
	}
}

// intervalMs K 线周期
var intervalMs = map[string]int64{
	"1m":  60_000,
	"3m":  180_000,
	"5m":  300_000,
	"15m": 900_000,
	"30m": 1_800_000,
	"1h":  3_600_000,
	"2h":  7_200_000,
	"4h":  14_400_000,
	"8h":  28_800_000,
	"12h": 43_200_000,
	"1d":  86_400_000,
	"3d":  259_200_000,
	"1w":  604_800_000,
	"1M":  2_592_000_000,
}

// IntervalMs K 线周期对应的毫秒数，未知周期返回 false
func IntervalMs(interval string) (int64, bool) {
	ms, ok := intervalMs[interval]
	return ms, ok
}
