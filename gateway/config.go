package gateway

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-throttle/admission"
	"github.com/KOMKZ/go-yogan-throttle/bucket"
	"github.com/KOMKZ/go-yogan-throttle/flowqueue"
	"github.com/KOMKZ/go-yogan-throttle/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConfigKey 配置根 key
const ConfigKey = "throttle"

// Config 限流配置
//
//	throttle:
//	  provider: hyperliquid
//	  max_weight_factor: 10
//	  buckets:
//	    - id: HYPERLIQUID_REST_IP_WEIGHT_1200_PER_MIN
//	      capacity: 1200
//	      refill_interval: 60s
//	  queues:
//	    - path: /api/v2/mix/market/funding-time
//	      period: 1s
//	      limit: 20
type Config struct {
	// Provider hyperliquid / huobi / bitget
	Provider string `mapstructure:"provider"`

	// Buckets 额外预注册的桶（ID 大小写敏感，所以用列表而不是 map）
	Buckets []bucket.Spec `mapstructure:"buckets"`

	// Queues 预创建的流控队列
	Queues []flowqueue.Spec `mapstructure:"queues"`

	MaxWeightFactor int64 `mapstructure:"max_weight_factor"`

	// PoolSize 流控队列发送协程数
	PoolSize int `mapstructure:"pool_size"`

	// ResultTTL 未取走结果的保留时长，0 为 2 倍队列超时
	ResultTTL time.Duration `mapstructure:"result_ttl"`

	// Blocking 准入时阻塞等待而不是立即拒绝
	Blocking bool `mapstructure:"blocking"`

	// LogEvents 桶拒绝和等待事件写 debug 日志
	LogEvents bool `mapstructure:"log_events"`

	Metrics bucket.MetricsConfig `mapstructure:"metrics"`
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	if c.MaxWeightFactor == 0 {
		c.MaxWeightFactor = admission.DefaultMaxWeightFactor
	}
	if c.PoolSize == 0 {
		c.PoolSize = flowqueue.DefaultPoolSize
	}
	for i := range c.Buckets {
		c.Buckets[i].ApplyDefaults()
	}
	for i := range c.Queues {
		c.Queues[i].ApplyDefaults()
	}
}

// Validate 校验全部桶和队列
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.MaxWeightFactor, validation.Min(int64(1))),
		validation.Field(&c.PoolSize, validation.Min(1)),
		validation.Field(&c.ResultTTL, validation.Min(time.Duration(0))),
	); err != nil {
		return validator.Convert(err, ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Buckets))
	for i, s := range c.Buckets {
		if seen[s.ID] {
			return ErrInvalidConfig.WithMsgf("buckets[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if err := s.Validate(); err != nil {
			return fmt.Errorf("buckets[%d]: %w", i, err)
		}
	}
	for i, q := range c.Queues {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("queues[%d]: %w", i, err)
		}
	}
	return nil
}
