// 包 notify：跨进程零载荷信号
// 背景：分享扩展进程把链接写进共享存储后，要提醒前台进程“去读存储”；
// 信号本身不带数据、不保序，至少一次送达即可，收到后读存储就是全部语义。
package notify

import (
	"context"

	"loc-sim/internal/logger"
	"loc-sim/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// 话题名：写共享链接后的提醒，以及回前台事件的模拟
const (
	TopicSharedURL = "shared-url"
	TopicResume    = "resume"
)

// Notifier：信号的发布与订阅契约
type Notifier interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(ctx context.Context, topic string, fn func())
}

// Redis：Redis 发布/订阅实现，频道加统一前缀
type Redis struct {
	rc     *redis.Client
	prefix string
}

func NewRedis(rc *redis.Client) *Redis {
	return &Redis{rc: rc, prefix: "locsim:signal:"}
}

func (n *Redis) Publish(ctx context.Context, topic string) error {
	metrics.SignalPublishTotal.WithLabelValues(topic).Inc()
	logger.L().Debug("signal_publish", "topic", topic)
	return n.rc.Publish(ctx, n.prefix+topic, "1").Err()
}

// Subscribe：为话题启动一个订阅协程，每收到一条消息回调一次
// 约束：回调在订阅协程上执行，耗时工作应由回调方自行分流；ctx 取消即退出
func (n *Redis) Subscribe(ctx context.Context, topic string, fn func()) {
	sub := n.rc.Subscribe(ctx, n.prefix+topic)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				metrics.SignalReceiveTotal.WithLabelValues(topic).Inc()
				logger.L().Debug("signal_receive", "topic", topic)
				fn()
			}
		}
	}()
}
