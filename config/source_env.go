package config

import (
	"os"
	"strings"
)

// EnvSource 环境变量数据源
// 层级用双下划线分隔，单下划线保留：
// THROTTLE_THROTTLE__MAX_WEIGHT_FACTOR -> throttle.max_weight_factor
type EnvSource struct {
	prefix   string
	priority int
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{prefix: prefix, priority: priority}
}

func (s *EnvSource) Name() string { return "env:" + s.prefix }

func (s *EnvSource) Priority() int { return s.priority }

// Load 扫描带前缀的环境变量
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		configKey := strings.ToLower(strings.TrimPrefix(key, prefix))
		configKey = strings.ReplaceAll(configKey, "__", ".")
		if configKey != "" {
			result[configKey] = value
		}
	}
	return result, nil
}
