// 包 spoof：定位覆盖的会话状态机与恢复校验
// 背景：覆盖可能被平台或其他工具悄悄撤销，进程也随时可能重启，
// 所以“相信的状态”要落盘，并在启动与回前台时对照真实读数校验。
package spoof

import "loc-sim/internal/geo"

// ErrorKind：会话级错误种类
// 约束：只作为信息记录在会话上，不跨引擎边界抛出
type ErrorKind string

const (
	// ErrUnableToStart：模拟服务无法启用。当前桥接为发后即忘，
	// 此错误暂不可达，保留种类以便失败通道可用时直接接上
	ErrUnableToStart ErrorKind = "unableToStart"
	// ErrInvalidCoordinate：调用方在未选定落点时请求启动
	ErrInvalidCoordinate ErrorKind = "invalidCoordinate"
)

// LocationPoint：用户选定或书签记录的落点
// 约束：不可变值，替换即新值；NeedsCoordinateTransform 为来源标记——
// 真表示坐标来自国内图商（GCJ-02），喂给模拟服务前需换算；
// 假表示已知 WGS-84（分享链接、通知载荷、书签都按政策定为假）
type LocationPoint struct {
	Coordinate               geo.Coordinate `json:"coordinate"`
	Altitude                 float64        `json:"altitude"`
	Label                    string         `json:"label,omitempty"`
	Note                     string         `json:"note,omitempty"`
	NeedsCoordinateTransform bool           `json:"needsCoordinateTransform"`
}

// NewPoint：地图选点的默认构造，来源按国内图商对待
func NewPoint(c geo.Coordinate) LocationPoint {
	return LocationPoint{Coordinate: c, NeedsCoordinateTransform: true}
}

// Session：会话状态，引擎独占持有，外部只读观测
// 不变量：point 非空当且仅当覆盖已向模拟服务发起且未停止；
// point 保存的始终是用户选择的原始坐标，换算结果不出引擎
type Session struct {
	point     *LocationPoint
	lastError *ErrorKind
}

// IsActive：是否处于 Running 状态
func (s Session) IsActive() bool { return s.point != nil }

// ActivePoint：Running 时返回落点副本，Idle 时返回 nil
func (s Session) ActivePoint() *LocationPoint {
	if s.point == nil {
		return nil
	}
	p := *s.point
	return &p
}

// LastError：最近一次记录的错误种类，无则 nil
func (s Session) LastError() *ErrorKind {
	if s.lastError == nil {
		return nil
	}
	k := *s.lastError
	return &k
}
