// 包 sim：定位模拟原语的外部边界
// 背景：系统级模拟服务只接受单个 WGS-84 坐标加海拔，开/关模拟；
// 当前集成没有失败回报通道，调用按“发后即忘”处理，错误只记日志。
package sim

import (
	"context"

	"loc-sim/internal/geo"
)

// Simulator：模拟服务契约
// 约束：引擎固定按 stop→clear→append→flush→start 顺序发起一次覆盖，
// 停止时按 stop→clear→flush；实现不得在内部重排
type Simulator interface {
	Clear(ctx context.Context) error
	Append(ctx context.Context, c geo.Coordinate, altitude float64) error
	Flush(ctx context.Context) error
	StartSimulating(ctx context.Context) error
	StopSimulating(ctx context.Context) error
}
