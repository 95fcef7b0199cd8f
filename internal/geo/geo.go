// 包 geo：WGS-84 与 GCJ-02 坐标系互转以及球面距离计算
// 背景：国内图商依法使用 GCJ-02 偏移坐标，而定位模拟原语只接受 WGS-84；
// 所有跨坐标系的换算集中在本包，换算是否需要由调用方按坐标来源决定。
package geo

import "math"

// Coordinate：纬经度值对象；所属坐标系不编码在类型里，由来源上下文标记
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WGS-84 椭球长半轴与第一偏心率平方，偏移模型的固定常数
const (
	semiMajorAxis = 6378245.0
	eccSquared    = 0.00669342162296594323
)

// 国内偏移生效的粗略包围区间：区间外的坐标不做任何偏移
const (
	regionLonMin = 72.004
	regionLonMax = 137.8347
	regionLatMin = 0.8293
	regionLatMax = 55.8271
)

// OutOfChina：判断坐标是否落在偏移区间之外
func OutOfChina(c Coordinate) bool {
	if c.Lon < regionLonMin || c.Lon > regionLonMax {
		return true
	}
	if c.Lat < regionLatMin || c.Lat > regionLatMax {
		return true
	}
	return false
}

// transformLat/transformLon：公开的多项式偏移修正函数，输入为 (lon-105, lat-35)
// 约束：系数与三角项必须与公开模型逐项一致，否则与既有数据不兼容
func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320.0*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}

// delta：按输入纬度处的曲率半径把多项式修正量折算成度
func delta(c Coordinate) (dLat, dLon float64) {
	dLat = transformLat(c.Lon-105.0, c.Lat-35.0)
	dLon = transformLon(c.Lon-105.0, c.Lat-35.0)
	radLat := c.Lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - eccSquared*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((semiMajorAxis * (1 - eccSquared)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * math.Pi)
	return dLat, dLon
}

// WGS84ToGCJ02：参考系坐标加偏移，得到图商展示坐标
func WGS84ToGCJ02(c Coordinate) Coordinate {
	if OutOfChina(c) {
		return c
	}
	dLat, dLon := delta(c)
	return Coordinate{Lat: c.Lat + dLat, Lon: c.Lon + dLon}
}

// GCJ02ToWGS84：单步近似逆变换
// 约束：把 GCJ-02 输入当作 WGS-84 近似值计算同一组偏移量后反向相减；
// 不做迭代细化，米级残差是既有数据链路约定的行为，不要“修正”
func GCJ02ToWGS84(c Coordinate) Coordinate {
	if OutOfChina(c) {
		return c
	}
	dLat, dLon := delta(c)
	return Coordinate{Lat: c.Lat - dLat, Lon: c.Lon - dLon}
}

// 地球平均半径（米），用于 Haversine 距离
const earthRadius = 6378137.0

// Distance：两点间 Haversine 大圆距离（米）
// 背景：恢复校验用它比较持久化落点与实时读数，阈值取米
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lon1 := a.Lon * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	lon2 := b.Lon * math.Pi / 180.0
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
