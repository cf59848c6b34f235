// Package config 多数据源配置加载（基于 viper）
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader 配置加载器
// 数据源按优先级从低到高合并，高优先级覆盖低优先级
type Loader struct {
	sources     []ConfigSource
	merged      map[string]interface{}
	v           *viper.Viper
	loadedFiles []string
}

// NewLoader 创建加载器
func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]interface{}),
		v:      viper.New(),
	}
}

// AddSource 添加数据源
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load 加载并合并所有数据源
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]interface{})
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("load source %s: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && len(data) > 0 {
			l.loadedFiles = append(l.loadedFiles, fs.path)
		}
		for k, v := range data {
			l.merged[k] = v
		}
	}

	l.v = viper.New()
	for k, v := range unflatten(l.merged) {
		l.v.Set(k, v)
	}
	return nil
}

// unflatten {"a.b": 1} -> {"a": {"b": 1}}
func unflatten(flat map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range flat {
		parts := strings.Split(key, ".")
		current := result
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = value
	}
	return result
}

// Unmarshal 将 key 下的配置解析到结构体（mapstructure tag），key 为空时解析全部
func (l *Loader) Unmarshal(key string, v interface{}) error {
	if key == "" {
		return l.v.Unmarshal(v)
	}
	return l.v.UnmarshalKey(key, v)
}

func (l *Loader) Get(key string) interface{} { return l.v.Get(key) }

func (l *Loader) GetString(key string) string { return l.v.GetString(key) }

func (l *Loader) GetInt(key string) int { return l.v.GetInt(key) }

func (l *Loader) GetBool(key string) bool { return l.v.GetBool(key) }

func (l *Loader) IsSet(key string) bool { return l.v.IsSet(key) }

// GetLoadedFiles 实际加载到内容的配置文件
func (l *Loader) GetLoadedFiles() []string {
	return l.loadedFiles
}

// Reload 重新加载
func (l *Loader) Reload() error {
	return l.Load()
}
