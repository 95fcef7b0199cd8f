// 包 realloc：真实位置读数来源
// 背景：恢复校验需要一份“观测到的现实”来对照持久化记录；设备传感器
// 读数经控制面上报，缺读数时可退化到基于公网 IP 的粗粒度定位。
package realloc

import (
	"context"
	"sync"
	"time"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
)

// Source：读数来源契约；返回 nil 坐标表示当前没有可用读数
type Source interface {
	Current(ctx context.Context) (*geo.Coordinate, error)
}

// Manual：控制面上报的最近一次传感器读数
// 约束：读数有有效期，过期视同无读数；Resume 在停止模拟后丢弃存量读数，
// 因为停止前传感器上报的是被覆盖的坐标，不能再当作现实
type Manual struct {
	mu    sync.RWMutex
	c     *geo.Coordinate
	at    time.Time
	ttl   time.Duration
	clock func() time.Time
}

func NewManual(ttl time.Duration) *Manual {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Manual{ttl: ttl, clock: time.Now}
}

// Report：记录一次传感器读数
func (m *Manual) Report(c geo.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c = &c
	m.at = m.clock()
	logger.L().Debug("realloc_report", "lat", c.Lat, "lon", c.Lon)
}

// Resume：恢复正常更新，丢弃存量读数
func (m *Manual) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c = nil
	logger.L().Debug("realloc_resume")
}

func (m *Manual) Current(_ context.Context) (*geo.Coordinate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.c == nil || m.clock().Sub(m.at) > m.ttl {
		return nil, nil
	}
	c := *m.c
	return &c, nil
}

// Chain：逐个询问来源，第一个给出读数的胜出
// 背景：传感器读数优先，粗粒度 IP 定位垫底；全部无读数时返回 nil
type Chain struct {
	srcs []Source
}

func NewChain(srcs ...Source) *Chain { return &Chain{srcs: srcs} }

func (c *Chain) Current(ctx context.Context) (*geo.Coordinate, error) {
	for _, s := range c.srcs {
		if s == nil {
			continue
		}
		got, err := s.Current(ctx)
		if err != nil {
			logger.L().Warn("realloc_source_error", "err", err)
			continue
		}
		if got != nil {
			return got, nil
		}
	}
	return nil, nil
}
