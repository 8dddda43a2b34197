// Package storage 聚合文档库、缓存与对象归档三类存储依赖。
package storage

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/logger"
)

// Storage 存储管理器。
// MySQL 是权威数据源，初始化失败直接报错；
// Redis 与 MinIO 为可选增强，失败降级为 nil 并记日志。
type Storage struct {
	MySQL *MySQL
	Redis *Redis
	MinIO *MinIO
}

// NewStorage 按配置初始化各存储组件
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	log := logger.WithComponent("storage")
	s := &Storage{}

	mysql, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("初始化 MySQL 失败: %w", err)
	}
	s.MySQL = mysql
	log.Info().Str("database", cfg.MySQL.Database).Msg("MySQL 初始化成功")

	redis, err := NewRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("初始化 Redis 失败，缓存层停用")
	} else {
		s.Redis = redis
		log.Info().Str("address", cfg.Redis.Address).Msg("Redis 初始化成功")
	}

	if cfg.MinIO.Enabled {
		minio, err := NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Msg("初始化 MinIO 失败，原始文件归档停用")
		} else {
			s.MinIO = minio
			log.Info().Str("endpoint", cfg.MinIO.Endpoint).Msg("MinIO 初始化成功")
		}
	}

	return s, nil
}

// Health 汇报各依赖的连通状态。探测失败只记入结果，不中断。
func (s *Storage) Health(ctx context.Context) map[string]string {
	checks := map[string]string{}

	if s.MySQL != nil {
		if err := s.MySQL.Ping(ctx); err != nil {
			checks["mysql"] = err.Error()
		} else {
			checks["mysql"] = "ok"
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}
	if s.MinIO != nil {
		checks["minio"] = "ok"
	} else {
		checks["minio"] = "disabled"
	}

	return checks
}

// Close 释放所有底层连接
func (s *Storage) Close() error {
	var firstErr error
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
