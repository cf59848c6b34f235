package config

import (
	"os"
	"path/filepath"
)

// DefaultEnvPrefix 默认环境变量前缀
const DefaultEnvPrefix = "THROTTLE"

// LoaderBuilder 加载器构建器
type LoaderBuilder struct {
	configPath string
	envPrefix  string
	env        string
}

// NewLoaderBuilder 创建构建器
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{envPrefix: DefaultEnvPrefix}
}

// WithConfigPath 配置目录
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithEnvPrefix 环境变量前缀，空字符串表示不读取环境变量
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithEnv 指定环境名，默认取 GetEnv()
func (b *LoaderBuilder) WithEnv(env string) *LoaderBuilder {
	b.env = env
	return b
}

// Build 构建并加载
// config.yaml(10) < {env}.yaml(20) < 环境变量(50)
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))

		env := b.env
		if env == "" {
			env = GetEnv()
		}
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
	}

	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv 运行环境：APP_ENV > ENV > dev
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
