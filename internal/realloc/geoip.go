package realloc

import (
	"context"
	"net"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP：基于本地 mmdb 城市库与配置公网 IP 的粗粒度读数来源
// 背景：无传感器上报时给“当前位置”展示兜底
// 约束：只用于展示查询，不得喂给恢复校验——它报的永远是真实位置，
// 覆盖生效期间拿它对照落点会把有效记录误判为已撤销；
// mmdb 文件与公网 IP 均来自配置；查无经纬度时返回无读数而非错误
type GeoIP struct {
	r  *geoip2.Reader
	ip net.IP
}

func NewGeoIP(mmdbPath, ipText string) (*GeoIP, error) {
	ip := net.ParseIP(ipText)
	if ip == nil {
		return nil, nil
	}
	r, err := geoip2.Open(mmdbPath)
	if err != nil {
		return nil, err
	}
	return &GeoIP{r: r, ip: ip}, nil
}

func (g *GeoIP) Close() error { return g.r.Close() }

func (g *GeoIP) Current(_ context.Context) (*geo.Coordinate, error) {
	rec, err := g.r.City(g.ip)
	if err != nil {
		return nil, err
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		logger.L().Debug("realloc_geoip_empty", "ip", g.ip.String())
		return nil, nil
	}
	logger.L().Debug("realloc_geoip_hit", "ip", g.ip.String(),
		"lat", rec.Location.Latitude, "lon", rec.Location.Longitude)
	return &geo.Coordinate{Lat: rec.Location.Latitude, Lon: rec.Location.Longitude}, nil
}
