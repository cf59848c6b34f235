package config

// ConfigSource 配置数据源（文件、环境变量等）
type ConfigSource interface {
	// Name 数据源名称（日志和调试用）
	Name() string

	// Priority 数值越大优先级越高
	// 建议：config.yaml 10，{env}.yaml 20，环境变量 50
	Priority() int

	// Load 返回点号分隔 key 的扁平 map，如 "throttle.max_weight_factor"
	Load() (map[string]interface{}, error)
}
