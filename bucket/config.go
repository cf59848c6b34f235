package bucket

import (
	"time"

	"github.com/KOMKZ/go-yogan-throttle/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 令牌桶配置，首次引用时固定
type Config struct {
	Capacity       int64         `mapstructure:"capacity"`
	RefillAmount   int64         `mapstructure:"refill_amount"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
}

// DefaultConfig 容量 1，每秒补满
func DefaultConfig() Config {
	return Config{Capacity: 1, RefillAmount: 1, RefillInterval: time.Second}
}

// ApplyDefaults 零值字段填充默认值
// RefillAmount 未配置时等于 Capacity（每个周期补满）
func (c *Config) ApplyDefaults() {
	if c.Capacity == 0 {
		c.Capacity = 1
	}
	if c.RefillInterval == 0 {
		c.RefillInterval = time.Second
	}
	if c.RefillAmount == 0 {
		c.RefillAmount = c.Capacity
	}
}

// Validate 校验配置
// 字段错误码：invalid_capacity / invalid_refill_interval / invalid_refill_amount
func (c Config) Validate() error {
	capacityErr := validation.NewError("invalid_capacity", "must be a positive integer")
	intervalErr := validation.NewError("invalid_refill_interval", "must be at least 1ms")
	amountErr := validation.NewError("invalid_refill_amount", "must be a positive integer")

	err := validation.ValidateStruct(&c,
		validation.Field(&c.Capacity,
			validation.Required.ErrorObject(capacityErr),
			validation.Min(int64(1)).ErrorObject(capacityErr)),
		validation.Field(&c.RefillInterval,
			validation.Required.ErrorObject(intervalErr),
			validation.Min(time.Millisecond).ErrorObject(intervalErr)),
		validation.Field(&c.RefillAmount,
			validation.Required.ErrorObject(amountErr),
			validation.Min(int64(1)).ErrorObject(amountErr)),
	)
	return validator.Convert(err, ErrInvalidConfig)
}

// Spec 桶 ID + 配置
type Spec struct {
	ID     string `mapstructure:"id"`
	Config `mapstructure:",squash"`
}

// Validate 校验 ID 和配置
func (s Spec) Validate() error {
	if err := validation.Validate(s.ID, validation.Required); err != nil {
		return ErrInvalidConfig.WithMsgf("bucket id: %v", err)
	}
	cfg := s.Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}
