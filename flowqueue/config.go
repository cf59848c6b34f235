package flowqueue

import (
	"time"

	"github.com/KOMKZ/go-yogan-throttle/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// 默认值与直接请求一致：10ms 一次，不限制条数
const (
	DefaultPeriod  = 10 * time.Millisecond
	DefaultTimeout = 30 * time.Second
)

// Config 单个路径的流控配置
type Config struct {
	// Period 出队周期
	Period time.Duration `mapstructure:"period"`

	// Limit 每个周期最多发送的任务数，0 表示不限制
	Limit int `mapstructure:"limit"`

	// Timeout Await 默认超时
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{Period: DefaultPeriod, Timeout: DefaultTimeout}
}

// ApplyDefaults 填充零值字段
func (c *Config) ApplyDefaults() {
	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Period,
			validation.Min(time.Millisecond).ErrorObject(validation.NewError("invalid_period", "must be at least 1ms")),
		),
		validation.Field(&c.Limit,
			validation.Min(0).ErrorObject(validation.NewError("invalid_limit", "must be no less than 0")),
		),
		validation.Field(&c.Timeout,
			validation.Min(time.Duration(0)).ErrorObject(validation.NewError("invalid_timeout", "must be no less than 0")),
		),
	)
	return validator.Convert(err, ErrInvalidConfig)
}

// Spec 带路径的队列配置（配置文件中的列表项）
type Spec struct {
	Path   string `mapstructure:"path"`
	Config `mapstructure:",squash"`
}

// Validate 校验路径和配置
func (s Spec) Validate() error {
	if err := validation.ValidateStruct(&s,
		validation.Field(&s.Path, validation.Required),
	); err != nil {
		return validator.Convert(err, ErrInvalidConfig)
	}
	return s.Config.Validate()
}
