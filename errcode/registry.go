package errcode

import (
	"fmt"
	"sync"
)

// 模块码
const (
	ModuleCommon    = 10
	ModuleBucket    = 61
	ModuleAdmission = 62
	ModuleFlowQueue = 63
	ModuleGateway   = 64
)

// Registry 错误码注册表（防止错误码冲突）
type Registry struct {
	mu     sync.RWMutex
	codes  map[int]string // code -> module:msgKey
	locked bool
}

var globalRegistry = NewRegistry()

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register 注册到全局注册表，冲突时 panic
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register 注册错误码
// 相同错误码且相同键视为幂等；相同错误码不同键 panic
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		panic(fmt.Sprintf("registry is locked, cannot register error code: %d", err.Code()))
	}

	key := err.Module() + ":" + err.MsgKey()
	if existing, ok := r.codes[err.Code()]; ok && existing != key {
		panic(fmt.Sprintf("error code conflict: code %d is already registered as %s, cannot register as %s",
			err.Code(), existing, key))
	}
	r.codes[err.Code()] = key
	return err
}

// Lock 锁定注册表，启动完成后调用
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// GetAll 所有已注册的错误码（副本）
func (r *Registry) GetAll() map[int]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make(map[int]string, len(r.codes))
	for k, v := range r.codes {
		codes[k] = v
	}
	return codes
}

// Count 已注册数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// GetAllRegisteredCodes 全局注册表中的所有错误码
func GetAllRegisteredCodes() map[int]string {
	return globalRegistry.GetAll()
}
