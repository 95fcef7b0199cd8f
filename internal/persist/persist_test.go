package persist

import (
	"context"
	"testing"

	"loc-sim/internal/geo"
)

// recordingAdapter：记录写操作顺序，用于校验键序约束
type recordingAdapter struct {
	*Memory
	ops []string
}

func (r *recordingAdapter) Set(ctx context.Context, key, value string) error {
	r.ops = append(r.ops, "set:"+key)
	return r.Memory.Set(ctx, key, value)
}

func (r *recordingAdapter) Remove(ctx context.Context, key string) error {
	r.ops = append(r.ops, "del:"+key)
	return r.Memory.Remove(ctx, key)
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	ad := NewMemory()
	rec := Record{
		IsSpoofing: true,
		Coordinate: &geo.Coordinate{Lat: 31.2304, Lon: 121.4737},
		Label:      "外滩",
		Note:       "测试",
	}
	if err := Save(ctx, ad, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(ctx, ad)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || !got.IsSpoofing {
		t.Fatal("expected running record")
	}
	if got.Coordinate.Lat != rec.Coordinate.Lat || got.Coordinate.Lon != rec.Coordinate.Lon {
		t.Fatalf("coordinate mismatch: %+v", got.Coordinate)
	}
	if got.Label != "外滩" || got.Note != "测试" {
		t.Fatalf("label/note mismatch: %+v", got)
	}

	if err := Clear(ctx, ad); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, k := range []string{KeyIsSpoofing, KeyCoordinate, KeyLabel, KeyNote} {
		if _, ok, _ := ad.Get(ctx, k); ok {
			t.Errorf("key %q survived clear", k)
		}
	}
	if got, _ := Load(ctx, ad); got != nil {
		t.Fatalf("expected nil record after clear, got %+v", got)
	}
}

// isSpoofing 必须最后写、最先删
func TestKeyOrdering(t *testing.T) {
	ctx := context.Background()
	ad := &recordingAdapter{Memory: NewMemory()}
	rec := Record{IsSpoofing: true, Coordinate: &geo.Coordinate{Lat: 39.9, Lon: 116.4}}
	if err := Save(ctx, ad, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	var sets []string
	for _, op := range ad.ops {
		if len(op) > 4 && op[:4] == "set:" {
			sets = append(sets, op[4:])
		}
	}
	if len(sets) == 0 || sets[len(sets)-1] != KeyIsSpoofing {
		t.Fatalf("isSpoofing not written last: %v", ad.ops)
	}

	ad.ops = nil
	if err := Clear(ctx, ad); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(ad.ops) == 0 || ad.ops[0] != "del:"+KeyIsSpoofing {
		t.Fatalf("isSpoofing not removed first: %v", ad.ops)
	}
}

// brokenRemoveAdapter：Remove 永远失败，模拟共享存储局部不可用
type brokenRemoveAdapter struct {
	*Memory
}

func (b *brokenRemoveAdapter) Remove(context.Context, string) error {
	return context.DeadlineExceeded
}

// 清理旧标签/备注失败是软失败：记录本身照常落盘
func TestSaveSurvivesRemoveFailure(t *testing.T) {
	ctx := context.Background()
	ad := &brokenRemoveAdapter{Memory: NewMemory()}
	_ = ad.Memory.Set(ctx, KeyLabel, "旧标签")

	rec := Record{IsSpoofing: true, Coordinate: &geo.Coordinate{Lat: 39.9, Lon: 116.4}}
	if err := Save(ctx, ad, rec); err != nil {
		t.Fatalf("save must tolerate remove failure: %v", err)
	}
	if v, ok, _ := ad.Get(ctx, KeyIsSpoofing); !ok || v != "true" {
		t.Fatal("record flag missing after save")
	}
}

// 标志为真但坐标缺失视同无记录
func TestLoadInconsistentRecord(t *testing.T) {
	ctx := context.Background()
	ad := NewMemory()
	_ = ad.Set(ctx, KeyIsSpoofing, "true")
	got, err := Load(ctx, ad)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for flag-without-coordinate, got %+v", got)
	}
}
