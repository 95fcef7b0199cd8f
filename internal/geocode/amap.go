// 包 geocode：逆地理编码协作方，把坐标翻译成人读地址标签
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"
)

// regeoResponse：高德逆地理响应，只解析本方案需要的字段
// 约束：status/infocode 用于错误判定；不在此处扩展对外响应模型
type regeoResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Infocode string `json:"infocode"`
	Regeo    struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"regeocode"`
}

// Client：高德逆地理 REST 客户端
// 背景：落点确认与书签命名需要地址标签；高德按 GCJ-02 理解 location 参数，
// 本客户端接收 WGS-84 输入并在出请求前自行加偏移
type Client struct {
	key    string
	client *http.Client
}

// NewClient：key 为高德 Web 服务后端密钥；client 为空时使用 4s 超时默认客户端
func NewClient(key string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 4 * time.Second}
	}
	return &Client{key: key, client: client}
}

// ReverseGeocode：查询坐标的人读地址
// 参数：c 为 WGS-84 坐标
// 返回：formatted_address 文本；status!="1" 时返回错误由上层降级处理
func (g *Client) ReverseGeocode(ctx context.Context, c geo.Coordinate) (string, error) {
	if g.key == "" {
		return "", errors.New("missing key")
	}
	gcj := geo.WGS84ToGCJ02(c)
	q := url.Values{}
	q.Set("key", g.key)
	q.Set("location", fmt.Sprintf("%.6f,%.6f", gcj.Lon, gcj.Lat))
	u := "https://restapi.amap.com/v3/geocode/regeo?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	t0 := time.Now()
	metrics.GeocodeRequestsTotal.Inc()
	logger.L().Debug("geocode_req", "lat", c.Lat, "lon", c.Lon)
	resp, err := g.client.Do(req)
	if err != nil {
		logger.L().Error("geocode_http_error", "err", err)
		metrics.GeocodeFailTotal.Inc()
		return "", err
	}
	defer resp.Body.Close()
	var r regeoResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		logger.L().Error("geocode_decode_error", "err", err)
		metrics.GeocodeFailTotal.Inc()
		return "", err
	}
	dur := time.Since(t0).Milliseconds()
	metrics.GeocodeDurationMs.Observe(float64(dur))
	logger.L().Debug("geocode_resp", "status", r.Status, "infocode", r.Infocode,
		"address", r.Regeo.FormattedAddress, "duration_ms", dur)
	if r.Status != "1" {
		metrics.GeocodeFailTotal.Inc()
		return "", errors.New("regeo error: " + r.Info)
	}
	return r.Regeo.FormattedAddress, nil
}
