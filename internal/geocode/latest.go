package geocode

import (
	"context"
	"sync"
)

// Latest：同一时刻至多一个在途请求
// 背景：搜索与逆地理属于异步可取消操作，新请求必须作废前一个在途请求，
// 避免慢的旧结果覆盖新结果；作废方式是取消旧上下文
type Latest struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Begin：派生一个新的在途上下文，同时取消上一个
// 约束：调用方完成后应调用返回的 cancel 释放资源
func (l *Latest) Begin(parent context.Context) (context.Context, context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	return ctx, cancel
}

// CancelPending：取消当前在途请求（若有）
func (l *Latest) CancelPending() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
