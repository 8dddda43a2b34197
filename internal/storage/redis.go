package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/constants"
)

// ErrCacheMiss 键不存在
var ErrCacheMiss = errors.New("cache miss")

// Redis 缓存层。所有写入均为尽力而为，调用方对错误只记日志。
type Redis struct {
	client *redis.Client

	urlTTL       time.Duration
	contentTTL   time.Duration
	extractedTTL time.Duration
}

// NewRedis 创建客户端并做连通性检查
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("Redis 配置不能为空")
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeoutSeconds > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeoutSeconds) * time.Second
	}
	if cfg.ReadTimeoutSeconds > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second
	}
	if cfg.WriteTimeoutSeconds > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeoutSeconds) * time.Second
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}

	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("启用 Redis 追踪失败: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 连接检查失败: %w", err)
	}

	return &Redis{
		client:       client,
		urlTTL:       config.GetDuration(cfg.URLKeyTTL, 24*time.Hour),
		contentTTL:   config.GetDuration(cfg.ContentKeyTTL, 72*time.Hour),
		extractedTTL: config.GetDuration(cfg.ExtractedKeyTTL, 72*time.Hour),
	}, nil
}

// Ping 连通性检查
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 关闭客户端
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get 读取键值，键不存在返回 ErrCacheMiss
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("读取缓存失败 %s: %w", key, err)
	}
	return val, nil
}

// Set 写入键值
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("写入缓存失败 %s: %w", key, err)
	}
	return nil
}

// Delete 删除键
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除缓存失败 %s: %w", key, err)
	}
	return nil
}

// --- 命名空间封装 ---

// GetURLContentHash url:<urlHash> -> 内容哈希
func (r *Redis) GetURLContentHash(ctx context.Context, urlHash string) (string, error) {
	return r.Get(ctx, constants.URLCacheKey(urlHash))
}

// SetURLContentHash 记录 URL 到内容哈希的映射
func (r *Redis) SetURLContentHash(ctx context.Context, urlHash, contentHash string) error {
	return r.Set(ctx, constants.URLCacheKey(urlHash), contentHash, r.urlTTL)
}

// GetContent content:<hash> -> 归一化文本
func (r *Redis) GetContent(ctx context.Context, contentHash string) (string, error) {
	return r.Get(ctx, constants.ContentCacheKey(contentHash))
}

// SetContent 缓存归一化文本
func (r *Redis) SetContent(ctx context.Context, contentHash, text string) error {
	return r.Set(ctx, constants.ContentCacheKey(contentHash), text, r.contentTTL)
}

// GetMeta meta:<hash> -> 元数据 JSON
func (r *Redis) GetMeta(ctx context.Context, contentHash string) (string, error) {
	return r.Get(ctx, constants.MetaCacheKey(contentHash))
}

// SetMeta 缓存归一化元数据
func (r *Redis) SetMeta(ctx context.Context, contentHash, metaJSON string) error {
	return r.Set(ctx, constants.MetaCacheKey(contentHash), metaJSON, r.contentTTL)
}

// GetExtracted extracted:<hash> -> 结构化提取结果 JSON
func (r *Redis) GetExtracted(ctx context.Context, contentHash string) (string, error) {
	return r.Get(ctx, constants.ExtractedCacheKey(contentHash))
}

// SetExtracted 缓存结构化提取结果
func (r *Redis) SetExtracted(ctx context.Context, contentHash, dataJSON string) error {
	return r.Set(ctx, constants.ExtractedCacheKey(contentHash), dataJSON, r.extractedTTL)
}
