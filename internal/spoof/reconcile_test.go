package spoof

import (
	"context"
	"testing"
	"time"

	"loc-sim/internal/geo"
	"loc-sim/internal/persist"
)

func runningRecord() *persist.Record {
	return &persist.Record{
		IsSpoofing: true,
		Coordinate: &geo.Coordinate{Lat: 39.90, Lon: 116.40},
		Label:      "北京",
	}
}

func TestEvaluateNoRecord(t *testing.T) {
	if p, inv := Evaluate(nil, nil); p != nil || inv {
		t.Fatalf("nil record: %v %v", p, inv)
	}
	rec := runningRecord()
	rec.IsSpoofing = false
	if p, inv := Evaluate(rec, nil); p != nil || inv {
		t.Fatalf("isSpoofing=false: %v %v", p, inv)
	}
}

// 无实时读数：无法证伪，信任记录
func TestEvaluateNoLiveReading(t *testing.T) {
	p, inv := Evaluate(runningRecord(), nil)
	if inv {
		t.Fatal("must not invalidate without a reading")
	}
	if p == nil || p.Coordinate != (geo.Coordinate{Lat: 39.90, Lon: 116.40}) {
		t.Fatalf("point %+v", p)
	}
	if p.NeedsCoordinateTransform {
		t.Fatal("reconstructed point must not request another transform")
	}
	if p.Label != "北京" {
		t.Fatalf("label %q", p.Label)
	}
}

// 读数在阈值内（约 140 米）：记录有效
func TestEvaluateNearReading(t *testing.T) {
	live := &geo.Coordinate{Lat: 39.901, Lon: 116.401}
	p, inv := Evaluate(runningRecord(), live)
	if p == nil || inv {
		t.Fatalf("expected valid record, got %v %v", p, inv)
	}
}

// 读数在阈值外（约 80 公里）：覆盖被外部撤销
func TestEvaluateFarReading(t *testing.T) {
	live := &geo.Coordinate{Lat: 40.50, Lon: 117.20}
	p, inv := Evaluate(runningRecord(), live)
	if p != nil || !inv {
		t.Fatalf("expected invalidation, got %v %v", p, inv)
	}
}

func TestReconcileRestoresSession(t *testing.T) {
	ctx := context.Background()
	e, fs, ad, _ := newTestEngine()

	rec := runningRecord()
	if err := persist.Save(ctx, ad, *rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	live := &geo.Coordinate{Lat: 39.901, Lon: 116.401}
	e.Reconcile(ctx, live)

	if !e.Session().IsActive() {
		t.Fatal("valid record must restore running state")
	}
	// 恢复校验不得重新发起模拟调用
	if len(fs.calls) != 0 {
		t.Fatalf("reconcile touched simulator: %v", fs.calls)
	}
	// 记录保留
	if got, _ := persist.Load(ctx, ad); got == nil {
		t.Fatal("record must be retained")
	}
}

func TestReconcileClearsStaleRecord(t *testing.T) {
	ctx := context.Background()
	e, _, ad, _ := newTestEngine()

	if err := persist.Save(ctx, ad, *runningRecord()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	live := &geo.Coordinate{Lat: 40.50, Lon: 117.20}
	e.Reconcile(ctx, live)

	if e.Session().IsActive() {
		t.Fatal("stale record must leave idle state")
	}
	if got, _ := persist.Load(ctx, ad); got != nil {
		t.Fatalf("stale record not cleared: %+v", got)
	}
}

// errSource：读数来源故障（传感器离线一类）
type errSource struct{}

func (errSource) Current(context.Context) (*geo.Coordinate, error) {
	return nil, context.DeadlineExceeded
}

// 来源出错等同于没有读数：无法证伪，记录照常恢复
func TestReconcileOnResumeReadingError(t *testing.T) {
	ctx := context.Background()
	e, fs, ad, _ := newTestEngine()
	if err := persist.Save(ctx, ad, *runningRecord()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ReconcileOnResume(ctx, e, errSource{})

	if !e.Session().IsActive() {
		t.Fatal("reading error must fall back to trusting the record")
	}
	if len(fs.calls) != 0 {
		t.Fatalf("resume reconcile touched simulator: %v", fs.calls)
	}
	if got, _ := persist.Load(ctx, ad); got == nil {
		t.Fatal("record must be retained")
	}
}

// 上下文取消：放弃本轮校验，会话与记录都不动
func TestReconcileOnResumeCancelled(t *testing.T) {
	e, _, ad, _ := newTestEngine()
	if err := persist.Save(context.Background(), ad, *runningRecord()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		ReconcileOnResume(ctx, e, errSource{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ReconcileDelay * 4):
		t.Fatal("cancelled resume reconcile did not return promptly")
	}
	if e.Session().IsActive() {
		t.Fatal("cancelled run must not change the session")
	}
	if got, _ := persist.Load(context.Background(), ad); got == nil {
		t.Fatal("cancelled run must not clear the record")
	}
}

func TestReconcileWithoutRecordGoesIdle(t *testing.T) {
	ctx := context.Background()
	e, _, _, _ := newTestEngine()

	// 先人为置为 Running，再用空存储校验
	p := LocationPoint{Coordinate: geo.Coordinate{Lat: 39.9, Lon: 116.4}}
	e.Restore(&p)
	e.Reconcile(ctx, nil)
	if e.Session().IsActive() {
		t.Fatal("no record means idle")
	}
}
