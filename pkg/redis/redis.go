package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MdKasif0/FairDesk-v2/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单与座位变更事件广播
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 速率限制 ──

// CheckRateLimit 固定窗口计数限流
// 返回 true 表示放行；key 首次出现时设置窗口过期时间
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// ── 座位变更事件广播 ──
//
// 核心只负责请求/响应；前端的实时刷新通过订阅该频道实现，
// 订阅方由外部系统自行维护。

// EventChannel 事件广播频道
const EventChannel = "fairdesk:events"

// 事件类型
const (
	EventAssignmentsChanged   = "assignments.changed"
	EventChangeRequestUpdated = "change_request.updated"
)

// SeatingEvent 座位变更事件载荷
type SeatingEvent struct {
	Type      string `json:"type"`
	GroupID   string `json:"group_id"`
	Date      string `json:"date,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	At        string `json:"at"`
}

// PublishSeatingEvent 发布座位变更事件
// 事件仅作为变更通知，失败不影响已提交的状态变更
func (c *Client) PublishSeatingEvent(ctx context.Context, ev SeatingEvent) error {
	ev.At = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	return c.rdb.Publish(ctx, EventChannel, payload).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
