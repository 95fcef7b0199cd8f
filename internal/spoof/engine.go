package spoof

import (
	"context"
	"sync"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"
	"loc-sim/internal/persist"
	"loc-sim/internal/sim"
)

// Resumer：真实位置子系统的恢复入口，停止覆盖后通知其恢复正常更新
type Resumer interface {
	Resume()
}

// Engine：覆盖状态机
// 约束：所有公开操作在同一把锁下串行，包括恢复校验；
// 会话与持久化记录只经由这些操作变更
type Engine struct {
	mu    sync.Mutex
	sim   sim.Simulator
	store persist.Adapter
	real  Resumer
	sess  Session
}

// New：注入模拟服务、持久化存储与可选的真实位置恢复入口
func New(s sim.Simulator, store persist.Adapter, real Resumer) *Engine {
	return &Engine{sim: s, store: store, real: real}
}

// Session：返回当前会话快照
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// Start：发起一次覆盖
// 语义：来源为 GCJ-02 的落点先做单步逆变换再喂给模拟服务；
// 会话里保存的是原始落点（界面要继续展示用户选的点）；
// 模拟服务为发后即忘，调用失败只记日志；持久化失败按软失败处理，
// 内存状态照常推进，代价是这次覆盖重启后无法恢复
func (e *Engine) Start(ctx context.Context, p LocationPoint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := p.Coordinate
	if p.NeedsCoordinateTransform {
		target = geo.GCJ02ToWGS84(p.Coordinate)
	}
	_ = e.sim.StopSimulating(ctx)
	_ = e.sim.Clear(ctx)
	_ = e.sim.Append(ctx, target, p.Altitude)
	_ = e.sim.Flush(ctx)
	_ = e.sim.StartSimulating(ctx)

	pt := p
	e.sess = Session{point: &pt}
	metrics.SpoofStartTotal.Inc()
	logger.L().Info("spoof_start",
		"lat", p.Coordinate.Lat, "lon", p.Coordinate.Lon,
		"altitude", p.Altitude, "transformed", p.NeedsCoordinateTransform)

	rec := persist.Record{
		IsSpoofing: true,
		Coordinate: &p.Coordinate,
		Label:      p.Label,
		Note:       p.Note,
	}
	if err := persist.Save(ctx, e.store, rec); err != nil {
		metrics.PersistErrorsTotal.Inc()
		logger.L().Error("spoof_persist_error", "err", err)
	}
}

// Stop：停止覆盖并清除持久化记录；幂等，Idle 时调用同样只留下 Idle
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = e.sim.StopSimulating(ctx)
	_ = e.sim.Clear(ctx)
	_ = e.sim.Flush(ctx)

	e.sess = Session{}
	metrics.SpoofStopTotal.Inc()
	logger.L().Info("spoof_stop")

	if err := persist.Clear(ctx, e.store); err != nil {
		metrics.PersistErrorsTotal.Inc()
		logger.L().Error("spoof_persist_clear_error", "err", err)
	}
	if e.real != nil {
		e.real.Resume()
	}
}

// Restore：只同步状态，不触碰模拟服务
// 背景：仅供启动与恢复校验使用，模拟服务自身的状态此时被认定已一致
func (e *Engine) Restore(p *LocationPoint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restoreLocked(p)
}

func (e *Engine) restoreLocked(p *LocationPoint) {
	if p == nil {
		e.sess = Session{}
		logger.L().Debug("spoof_restore_idle")
		return
	}
	pt := *p
	e.sess = Session{point: &pt}
	logger.L().Info("spoof_restore_running", "lat", pt.Coordinate.Lat, "lon", pt.Coordinate.Lon)
}

// RecordError：记录会话错误，不改变运行状态
func (e *Engine) RecordError(kind ErrorKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := kind
	e.sess.lastError = &k
	metrics.SpoofErrorsTotal.WithLabelValues(string(kind)).Inc()
	logger.L().Warn("spoof_error_recorded", "kind", string(kind))
}
