// Package provider 按名称选择各 provider 的限流规则
package provider

import (
	"sort"

	"github.com/KOMKZ/go-yogan-throttle/gateway"
	"github.com/KOMKZ/go-yogan-throttle/provider/bitget"
	"github.com/KOMKZ/go-yogan-throttle/provider/huobi"
	"github.com/KOMKZ/go-yogan-throttle/provider/hyperliquid"
)

var factories = map[string]gateway.ProfileResolver{
	hyperliquid.Name: func(gateway.Config) (gateway.Profile, error) { return hyperliquid.NewProfile(), nil },
	huobi.Name:       func(gateway.Config) (gateway.Profile, error) { return huobi.NewProfile(), nil },
	bitget.Name: func(cfg gateway.Config) (gateway.Profile, error) {
		return bitget.NewProfile(cfg.Queues...), nil
	},
}

// Lookup 按 cfg.Provider 创建 Profile，签名与 gateway.ProfileResolver 一致
func Lookup(cfg gateway.Config) (gateway.Profile, error) {
	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, gateway.ErrUnknownProvider.WithMsgf("unknown provider %q", cfg.Provider).WithData("provider", cfg.Provider)
	}
	return f(cfg)
}

// Names 已支持的 provider
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
