package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"
)

// Bridge：通过 HTTP 访问设备侧模拟代理
// 背景：守护进程与真正执行注入的设备代理分离，代理暴露五个操作端点；
// 约束：代理为发后即忘语义，非 2xx 也只作为失败计数与日志，不向上抛业务错误之外的语义
type Bridge struct {
	endpoint string
	client   *http.Client
}

// NewBridge：创建桥接客户端
// 参数：endpoint 为代理基址；client 为空时使用 3s 超时的默认客户端
func NewBridge(endpoint string, client *http.Client) *Bridge {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return &Bridge{endpoint: endpoint, client: client}
}

// post：向代理的单个操作端点发 JSON
func (b *Bridge) post(ctx context.Context, op string, body any) error {
	metrics.SimCallsTotal.WithLabelValues(op).Inc()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			metrics.SimFailTotal.WithLabelValues(op).Inc()
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/"+op, &buf)
	if err != nil {
		metrics.SimFailTotal.WithLabelValues(op).Inc()
		return err
	}
	req.Header.Set("content-type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		logger.L().Error("sim_http_error", "op", op, "err", err)
		metrics.SimFailTotal.WithLabelValues(op).Inc()
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		logger.L().Error("sim_bad_status", "op", op, "status", resp.StatusCode)
		metrics.SimFailTotal.WithLabelValues(op).Inc()
		return errors.New("sim bridge status " + resp.Status)
	}
	logger.L().Debug("sim_call_ok", "op", op)
	return nil
}

func (b *Bridge) Clear(ctx context.Context) error { return b.post(ctx, "clear", nil) }

func (b *Bridge) Append(ctx context.Context, c geo.Coordinate, altitude float64) error {
	return b.post(ctx, "append", map[string]float64{"lat": c.Lat, "lon": c.Lon, "altitude": altitude})
}

func (b *Bridge) Flush(ctx context.Context) error { return b.post(ctx, "flush", nil) }

func (b *Bridge) StartSimulating(ctx context.Context) error { return b.post(ctx, "start", nil) }

func (b *Bridge) StopSimulating(ctx context.Context) error { return b.post(ctx, "stop", nil) }
