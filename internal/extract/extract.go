// 包 extract：从地图链接、深链与自由文本中提取坐标
// 背景：分享进来的链接格式五花八门，这里只认一小组固定形态；
// 经由本包产出的坐标按政策一律视为 WGS-84（来源是标准图商链接、
// 本系统自造的深链或通知载荷），调用方不需要再做换算。
// 约束：提取失败以“无结果”表达，调用方不得因此改变任何状态。
package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"
)

// 路径中 /@lat,lon 形态，谷歌系链接常见
var pathAtRe = regexp.MustCompile(`/@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)

// parsePair：解析 "a,b[,...]" 的前两个浮点
func parsePair(s string) (geo.Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return geo.Coordinate{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, true
}

// FromMapURL：按固定顺序尝试各提取形态，先匹配者胜出
// 顺序：ll → q → center → 路径 /@lat,lon
func FromMapURL(u *url.URL) (geo.Coordinate, bool) {
	if u == nil {
		return geo.Coordinate{}, false
	}
	q := u.Query()
	for _, key := range []string{"ll", "q", "center"} {
		if v := q.Get(key); v != "" {
			if c, ok := parsePair(v); ok {
				metrics.ExtractHitsTotal.WithLabelValues(key).Inc()
				logger.L().Debug("extract_hit", "form", key, "lat", c.Lat, "lon", c.Lon)
				return c, true
			}
		}
	}
	if m := pathAtRe.FindStringSubmatch(u.Path); m != nil {
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			metrics.ExtractHitsTotal.WithLabelValues("path").Inc()
			logger.L().Debug("extract_hit", "form", "path", "lat", lat, "lon", lon)
			return geo.Coordinate{Lat: lat, Lon: lon}, true
		}
	}
	metrics.ExtractMissesTotal.Inc()
	logger.L().Debug("extract_miss", "url", u.String())
	return geo.Coordinate{}, false
}

// FromDeepLink：处理本系统自定义 scheme 的深链
// 形态一：host=spoof，查询参数 lat/lon；
// 形态二：host=process-map-url，查询参数 url 为百分号编码的内嵌图商链接，
// 解开后转交 FromMapURL
func FromDeepLink(raw string) (geo.Coordinate, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return geo.Coordinate{}, false
	}
	switch u.Host {
	case "spoof":
		q := u.Query()
		lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
		lon, err2 := strconv.ParseFloat(q.Get("lon"), 64)
		if err1 != nil || err2 != nil {
			return geo.Coordinate{}, false
		}
		metrics.ExtractHitsTotal.WithLabelValues("deeplink").Inc()
		return geo.Coordinate{Lat: lat, Lon: lon}, true
	case "process-map-url":
		nested := u.Query().Get("url")
		if nested == "" {
			return geo.Coordinate{}, false
		}
		inner, err := url.Parse(nested)
		if err != nil {
			return geo.Coordinate{}, false
		}
		return FromMapURL(inner)
	}
	// 非自定义深链：按普通图商链接兜底尝试
	return FromMapURL(u)
}

// ParseFreeText：搜索框里的裸坐标对，"lat,lon" 或 "lon,lat"
// 约束：恰好两个数字记号；两种次序都结构合法时按“纬度在前”的默认约定；
// 不论选了哪种次序，最终坐标越界（|lat|>90 或 |lon|>180）一律拒绝
func ParseFreeText(s string) (geo.Coordinate, bool) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return geo.Coordinate{}, false
	}
	a, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	b, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return geo.Coordinate{}, false
	}
	var c geo.Coordinate
	if abs(a) <= 90 {
		c = geo.Coordinate{Lat: a, Lon: b}
	} else if abs(b) <= 90 {
		c = geo.Coordinate{Lat: b, Lon: a}
	} else {
		return geo.Coordinate{}, false
	}
	if abs(c.Lat) > 90 || abs(c.Lon) > 180 {
		return geo.Coordinate{}, false
	}
	metrics.ExtractHitsTotal.WithLabelValues("freetext").Inc()
	return c, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
