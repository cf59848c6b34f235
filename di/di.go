// Package di 基于 samber/do 的依赖注入
package di

import "github.com/samber/do/v2"

// Injector 类型别名
type Injector = do.Injector

// RootScope 类型别名
type RootScope = do.RootScope

// New 创建新的根注入器
var New = do.New

// NewWithOpts 使用选项创建新的根注入器
var NewWithOpts = do.NewWithOpts

// 泛型函数不能导出为 var，通过 do 包调用：
//
//	injector := di.New()
//	RegisterCoreProviders(injector, ConfigOptions{ConfigPath: "configs"})
//	do.ProvideValue[transport.Transport](injector, tr)
//	gw := do.MustInvoke[*gateway.Gateway](injector)
