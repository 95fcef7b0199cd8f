// 包 persist：字符串键值存储之上的会话持久化
// 背景：进程可能随时被杀或切后台，模拟状态要在存储里留一份影子记录，
// 供重启与回前台时的恢复校验读取；主进程与分享扩展进程共享同一存储域。
package persist

import (
	"context"
	"encoding/json"
	"errors"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
)

// Adapter：字符串键值存储的最小契约
// 约束：Get 以第二个返回值区分“键不存在”；实现需保证跨进程可见
type Adapter interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// 逻辑键名：与既有记录兼容，不要改名
const (
	KeyIsSpoofing = "isSpoofing"
	KeyCoordinate = "spoofingCoordinate"
	KeyLabel      = "spoofingLabel"
	KeyNote       = "spoofingNote"
	KeySharedURL  = "pendingSharedURL"
)

// Record：会话的持久化影子
// 约束：IsSpoofing 为真时 Coordinate 必须存在；坐标始终以原始（已解析）坐标系落盘
type Record struct {
	IsSpoofing bool
	Coordinate *geo.Coordinate
	Label      string
	Note       string
}

// Save：写入运行中记录
// 约束：坐标、标签、备注先写，isSpoofing 最后写，缩小并发读者看到
// “标志为真但坐标缺失”的窗口；任一键写失败即返回错误，由调用方按软失败处理
func Save(ctx context.Context, ad Adapter, rec Record) error {
	if rec.Coordinate == nil {
		return errors.New("record without coordinate")
	}
	b, err := json.Marshal([2]float64{rec.Coordinate.Lat, rec.Coordinate.Lon})
	if err != nil {
		return err
	}
	if err := ad.Set(ctx, KeyCoordinate, string(b)); err != nil {
		return err
	}
	if rec.Label != "" {
		if err := ad.Set(ctx, KeyLabel, rec.Label); err != nil {
			return err
		}
	} else if err := ad.Remove(ctx, KeyLabel); err != nil {
		// 残留的旧标签会挂到新记录上，软失败但要留痕
		logger.L().Warn("persist_save_partial", "key", KeyLabel, "err", err)
	}
	if rec.Note != "" {
		if err := ad.Set(ctx, KeyNote, rec.Note); err != nil {
			return err
		}
	} else if err := ad.Remove(ctx, KeyNote); err != nil {
		logger.L().Warn("persist_save_partial", "key", KeyNote, "err", err)
	}
	return ad.Set(ctx, KeyIsSpoofing, "true")
}

// Clear：清除全部记录键
// 约束：isSpoofing 最先删，让并发读者尽早看到“未在模拟”；其余键删除失败仅记日志
func Clear(ctx context.Context, ad Adapter) error {
	if err := ad.Remove(ctx, KeyIsSpoofing); err != nil {
		return err
	}
	for _, k := range []string{KeyCoordinate, KeyLabel, KeyNote} {
		if err := ad.Remove(ctx, k); err != nil {
			logger.L().Warn("persist_clear_partial", "key", k, "err", err)
		}
	}
	return nil
}

// Load：读取持久化记录
// 返回：无记录（标志缺失或为假）时返回 nil；标志为真但坐标缺失/损坏视同无记录
func Load(ctx context.Context, ad Adapter) (*Record, error) {
	v, ok, err := ad.Get(ctx, KeyIsSpoofing)
	if err != nil {
		return nil, err
	}
	if !ok || v != "true" {
		return nil, nil
	}
	raw, ok, err := ad.Get(ctx, KeyCoordinate)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.L().Warn("persist_record_inconsistent", "reason", "flag_without_coordinate")
		return nil, nil
	}
	var pair [2]float64
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		logger.L().Warn("persist_record_inconsistent", "reason", "bad_coordinate", "err", err)
		return nil, nil
	}
	rec := Record{IsSpoofing: true, Coordinate: &geo.Coordinate{Lat: pair[0], Lon: pair[1]}}
	if s, ok, _ := ad.Get(ctx, KeyLabel); ok {
		rec.Label = s
	}
	if s, ok, _ := ad.Get(ctx, KeyNote); ok {
		rec.Note = s
	}
	return &rec, nil
}
