package spoof

import (
	"context"
	"testing"

	"loc-sim/internal/geo"
	"loc-sim/internal/persist"
)

// fakeSim：记录调用序列的模拟服务替身
type fakeSim struct {
	calls  []string
	coords []geo.Coordinate
	alts   []float64
}

func (f *fakeSim) Clear(context.Context) error { f.calls = append(f.calls, "clear"); return nil }
func (f *fakeSim) Append(_ context.Context, c geo.Coordinate, alt float64) error {
	f.calls = append(f.calls, "append")
	f.coords = append(f.coords, c)
	f.alts = append(f.alts, alt)
	return nil
}
func (f *fakeSim) Flush(context.Context) error { f.calls = append(f.calls, "flush"); return nil }
func (f *fakeSim) StartSimulating(context.Context) error {
	f.calls = append(f.calls, "start")
	return nil
}
func (f *fakeSim) StopSimulating(context.Context) error {
	f.calls = append(f.calls, "stop")
	return nil
}

type fakeResumer struct{ resumed int }

func (f *fakeResumer) Resume() { f.resumed++ }

func newTestEngine() (*Engine, *fakeSim, *persist.Memory, *fakeResumer) {
	fs := &fakeSim{}
	ad := persist.NewMemory()
	rr := &fakeResumer{}
	return New(fs, ad, rr), fs, ad, rr
}

func TestStartSequenceAndState(t *testing.T) {
	ctx := context.Background()
	e, fs, ad, _ := newTestEngine()

	p := NewPoint(geo.Coordinate{Lat: 39.90, Lon: 116.40})
	p.Altitude = 43.5
	p.Label = "天安门"
	e.Start(ctx, p)

	want := []string{"stop", "clear", "append", "flush", "start"}
	if len(fs.calls) != len(want) {
		t.Fatalf("call sequence %v", fs.calls)
	}
	for i := range want {
		if fs.calls[i] != want[i] {
			t.Fatalf("call sequence %v, want %v", fs.calls, want)
		}
	}
	// 来源是 GCJ-02，喂给模拟服务的坐标必须已经换算
	fed := fs.coords[0]
	if fed == p.Coordinate {
		t.Fatal("coordinate fed to simulator was not transformed")
	}
	if d := geo.Distance(fed, geo.GCJ02ToWGS84(p.Coordinate)); d > 0.01 {
		t.Fatalf("fed coordinate differs from one-step inverse by %.3f m", d)
	}
	if fs.alts[0] != 43.5 {
		t.Fatalf("altitude %v", fs.alts[0])
	}

	sess := e.Session()
	if !sess.IsActive() {
		t.Fatal("session not active after start")
	}
	// 会话保存原始落点，不是模拟坐标系的换算结果
	if got := sess.ActivePoint(); got == nil || got.Coordinate != p.Coordinate {
		t.Fatalf("active point %+v, want original %+v", got, p.Coordinate)
	}
	if sess.LastError() != nil {
		t.Fatal("lastError should be cleared on start")
	}

	rec, err := persist.Load(ctx, ad)
	if err != nil || rec == nil {
		t.Fatalf("persisted record missing: %v", err)
	}
	if *rec.Coordinate != p.Coordinate || rec.Label != "天安门" {
		t.Fatalf("persisted %+v", rec)
	}
}

func TestStartWithoutTransform(t *testing.T) {
	ctx := context.Background()
	e, fs, _, _ := newTestEngine()

	p := LocationPoint{Coordinate: geo.Coordinate{Lat: 31.2304, Lon: 121.4737}}
	e.Start(ctx, p)
	if fs.coords[0] != p.Coordinate {
		t.Fatalf("WGS-84 input must pass through unchanged, got %+v", fs.coords[0])
	}
}

func TestStopClearsEverything(t *testing.T) {
	ctx := context.Background()
	e, fs, ad, rr := newTestEngine()

	e.Start(ctx, NewPoint(geo.Coordinate{Lat: 39.9, Lon: 116.4}))
	fs.calls = nil
	e.Stop(ctx)

	want := []string{"stop", "clear", "flush"}
	for i := range want {
		if fs.calls[i] != want[i] {
			t.Fatalf("stop sequence %v, want %v", fs.calls, want)
		}
	}
	if e.Session().IsActive() {
		t.Fatal("session still active after stop")
	}
	for _, k := range []string{persist.KeyIsSpoofing, persist.KeyCoordinate, persist.KeyLabel, persist.KeyNote} {
		if _, ok, _ := ad.Get(ctx, k); ok {
			t.Errorf("key %q survived stop", k)
		}
	}
	if rr.resumed != 1 {
		t.Fatalf("real-location resume called %d times", rr.resumed)
	}
}

// Idle 时再次 Stop：仍是 Idle，记录仍然是空，不报错
func TestStopIdempotent(t *testing.T) {
	ctx := context.Background()
	e, _, ad, _ := newTestEngine()

	e.Stop(ctx)
	e.Stop(ctx)
	if e.Session().IsActive() {
		t.Fatal("idle expected")
	}
	if rec, _ := persist.Load(ctx, ad); rec != nil {
		t.Fatalf("record after idle stop: %+v", rec)
	}
}

// Restore 只同步状态，不得触碰模拟服务
func TestRestoreDoesNotTouchSimulator(t *testing.T) {
	e, fs, _, _ := newTestEngine()

	p := LocationPoint{Coordinate: geo.Coordinate{Lat: 39.9, Lon: 116.4}}
	e.Restore(&p)
	if len(fs.calls) != 0 {
		t.Fatalf("restore made simulator calls: %v", fs.calls)
	}
	if !e.Session().IsActive() {
		t.Fatal("restore(point) should leave running state")
	}
	e.Restore(nil)
	if e.Session().IsActive() {
		t.Fatal("restore(nil) should leave idle state")
	}
	if len(fs.calls) != 0 {
		t.Fatalf("restore made simulator calls: %v", fs.calls)
	}
}

func TestRecordErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	e, _, _, _ := newTestEngine()

	e.RecordError(ErrInvalidCoordinate)
	sess := e.Session()
	if sess.IsActive() {
		t.Fatal("recordError must not change state")
	}
	if k := sess.LastError(); k == nil || *k != ErrInvalidCoordinate {
		t.Fatalf("lastError %v", k)
	}

	// 启动成功后 lastError 清空
	e.Start(ctx, NewPoint(geo.Coordinate{Lat: 39.9, Lon: 116.4}))
	if e.Session().LastError() != nil {
		t.Fatal("start must clear lastError")
	}
}

// 持久化失败是软失败：内存状态照常推进
type failingAdapter struct{ persist.Memory }

func (f *failingAdapter) Set(context.Context, string, string) error {
	return context.DeadlineExceeded
}

func TestStartSurvivesPersistFailure(t *testing.T) {
	ctx := context.Background()
	fs := &fakeSim{}
	e := New(fs, &failingAdapter{}, nil)
	e.Start(ctx, NewPoint(geo.Coordinate{Lat: 39.9, Lon: 116.4}))
	if !e.Session().IsActive() {
		t.Fatal("in-memory state must move even when persistence fails")
	}
}
