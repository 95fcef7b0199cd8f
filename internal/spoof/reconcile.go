package spoof

import (
	"context"
	"time"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"
	"loc-sim/internal/persist"
	"loc-sim/internal/realloc"
)

// ReconcileThresholdMeters：持久化落点与实时读数的判别阈值
// 背景：跨图商坐标系偏差加传感器噪声可能远超常规几米级抖动，
// 取 1000 米的宽松界，仍足以识别真正被撤销后的公里级偏离
const ReconcileThresholdMeters = 1000.0

// ReconcileDelay：回前台后等一拍再校验，给新读数到达留时间
const ReconcileDelay = 500 * time.Millisecond

// Evaluate：判定持久化记录是否仍然有效
// 返回：有效（或无法证伪）时返回重建的落点，否则 nil；
// invalidated 为真表示记录被实时读数证伪，调用方应清除记录
// 约束：无实时读数时默认信任记录——覆盖若真在生效，传感器本来
// 也只会报出被覆盖的坐标；重建落点固定 NeedsCoordinateTransform=false，
// 落盘坐标始终是原始已解析坐标系
func Evaluate(rec *persist.Record, live *geo.Coordinate) (p *LocationPoint, invalidated bool) {
	if rec == nil || !rec.IsSpoofing || rec.Coordinate == nil {
		return nil, false
	}
	pt := LocationPoint{
		Coordinate:               *rec.Coordinate,
		Label:                    rec.Label,
		Note:                     rec.Note,
		NeedsCoordinateTransform: false,
	}
	if live == nil {
		return &pt, false
	}
	d := geo.Distance(*live, *rec.Coordinate)
	if d <= ReconcileThresholdMeters {
		logger.L().Debug("reconcile_valid", "distance_m", d)
		return &pt, false
	}
	logger.L().Info("reconcile_invalidated", "distance_m", d)
	return nil, true
}

// Reconcile：加载记录、对照读数并同步会话
// 约束：与 Start/Stop 在同一把锁下串行；记录读取失败按软失败处理，
// 维持当前会话不变（无法证伪就不动）
func (e *Engine) Reconcile(ctx context.Context, live *geo.Coordinate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	metrics.ReconcileRunsTotal.Inc()
	rec, err := persist.Load(ctx, e.store)
	if err != nil {
		logger.L().Error("reconcile_load_error", "err", err)
		return
	}
	p, invalidated := Evaluate(rec, live)
	if invalidated {
		metrics.ReconcileInvalidatedTotal.Inc()
		if err := persist.Clear(ctx, e.store); err != nil {
			metrics.PersistErrorsTotal.Inc()
			logger.L().Error("reconcile_clear_error", "err", err)
		}
	}
	if p != nil {
		metrics.ReconcileRestoredTotal.Inc()
	}
	e.restoreLocked(p)
}

// ReconcileOnResume：回前台事件的校验入口
// 背景：等 ReconcileDelay 后取一次实时读数再校验；ctx 取消则放弃
func ReconcileOnResume(ctx context.Context, e *Engine, src realloc.Source) {
	t := time.NewTimer(ReconcileDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}
	var live *geo.Coordinate
	if src != nil {
		c, err := src.Current(ctx)
		if err != nil {
			logger.L().Warn("reconcile_reading_error", "err", err)
		} else {
			live = c
		}
	}
	e.Reconcile(ctx, live)
}
