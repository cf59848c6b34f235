package main

import (
	"fmt"

	"github.com/KOMKZ/go-yogan-throttle/di"
	"github.com/KOMKZ/go-yogan-throttle/flagx"
	"github.com/KOMKZ/go-yogan-throttle/gateway"
	"github.com/KOMKZ/go-yogan-throttle/logger"
	"github.com/KOMKZ/go-yogan-throttle/transport"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	ConfigPath string
	Env        string
	EnvPrefix  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "throttlectl",
		Short:        "限流网关工具",
		SilenceUsage: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config-path", "configs", "配置目录")
	pf.StringVar(&opts.Env, "env", "", "环境名，默认取 APP_ENV")
	pf.StringVar(&opts.EnvPrefix, "env-prefix", "THROTTLE", "环境变量前缀，空表示不读取")

	cmd.AddCommand(
		newProvidersCmd(),
		newBucketsCmd(opts),
		newHealthCmd(opts),
		newEstimateCmd(),
		newSimulateCmd(opts),
	)
	return cmd
}

// newInjector 注册核心 Provider 和传输层
func newInjector(opts *rootOptions, tr transport.Transport) *do.RootScope {
	injector := di.New()
	di.RegisterCoreProviders(injector, di.ConfigOptions{
		ConfigPath:   opts.ConfigPath,
		ConfigPrefix: opts.EnvPrefix,
		Env:          opts.Env,
	})
	do.ProvideValue(injector, tr)
	return injector
}

// startGateway 创建注入器并提前创建核心组件，失败时注入器已关闭
func startGateway(cmd *cobra.Command, opts *rootOptions, tr transport.Transport) (*do.RootScope, *gateway.Gateway, error) {
	injector := newInjector(opts, tr)
	log, err := do.Invoke[*logger.CtxZapLogger](injector)
	if err == nil {
		err = di.StartCoreComponents(cmd.Context(), injector, log)
	}
	if err != nil {
		_ = injector.Shutdown()
		return nil, nil, err
	}
	return injector, do.MustInvoke[*gateway.Gateway](injector), nil
}

// mustBindFlags 标志定义错误属于编码错误，构造命令时直接 panic
func mustBindFlags(cmd *cobra.Command, target any) {
	if err := flagx.BindFlags(cmd, target); err != nil {
		panic(fmt.Sprintf("绑定 %s 命令参数失败: %v", cmd.Name(), err))
	}
}
