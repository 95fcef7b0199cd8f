package persist

import (
	"context"
	"sync"
)

// Memory：进程内键值存储
// 背景：未配置 Redis 时的退化实现，恢复校验与状态机照常工作，
// 只是记录不跨进程、进程退出即丢；测试也用它做替身
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (a *Memory) Get(_ context.Context, key string) (string, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.m[key]
	return v, ok, nil
}

func (a *Memory) Set(_ context.Context, key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m[key] = value
	return nil
}

func (a *Memory) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.m, key)
	return nil
}
