// Package config 提供应用配置的加载与默认值。
// 配置来源优先级：显式路径 > 搜索路径中的 config.yaml > 内置默认值，
// 关键凭据支持环境变量覆盖。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig 大模型访问配置（OpenAI 兼容接口）
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	APIURL string `yaml:"api_url"`
	Model  string `yaml:"model"`
	// TaskModels 任务名 -> 专用模型，未配置的任务用默认 Model
	TaskModels map[string]string `yaml:"task_models"`
	// QPM 每分钟请求数上限，0 表示不限
	QPM int `yaml:"qpm"`
}

// ExtractorConfig 结构化提取配置
type ExtractorConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// ExtractionTimeout 单次提取超时，例如 "60s"
	ExtractionTimeout string `yaml:"extraction_timeout"`
	MaxRetries        int    `yaml:"max_retries"`
}

// AnalyzerConfig 匹配分析配置
type AnalyzerConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// AnalysisTimeout 单次匹配分析超时，例如 "120s"
	AnalysisTimeout string `yaml:"analysis_timeout"`
	MaxRetries      int    `yaml:"max_retries"`
}

// NormalizerConfig 文档归一化配置
type NormalizerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	// URLProbeTimeout HEAD 探测超时；URLFetchTimeout 正文下载超时
	URLProbeTimeout string `yaml:"url_probe_timeout"`
	URLFetchTimeout string `yaml:"url_fetch_timeout"`
	// MaxDownloadBytes 单次下载体积上限，0 表示不限
	MaxDownloadBytes int64 `yaml:"max_download_bytes"`
}

// MySQLConfig 文档库配置
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池
	MaxIdleConns           int `yaml:"max_idle_conns"`
	MaxOpenConns           int `yaml:"max_open_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	// 超时(秒)
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`
	// GORM 日志级别(1-4)
	LogLevel int `yaml:"log_level"`
}

// RedisConfig 缓存层配置
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时(秒)
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	MaxRetries          int `yaml:"max_retries"`
	// 各命名空间 TTL
	URLKeyTTL       string `yaml:"url_key_ttl"`
	ContentKeyTTL   string `yaml:"content_key_ttl"`
	ExtractedKeyTTL string `yaml:"extracted_key_ttl"`
}

// MinIOConfig 原始文件归档配置
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	ResumeBucket    string `yaml:"resume_bucket"`
	JobBucket       string `yaml:"job_bucket"`
	Location        string `yaml:"location"`
	// Enabled 为 false 时跳过归档
	Enabled bool `yaml:"enabled"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Address string `yaml:"address"`
}

// TracingConfig OTLP 上报配置
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	// ServiceName 上报 span 的 service.name
	ServiceName string `yaml:"service_name"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// Config 应用程序配置
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Resume     ExtractorConfig  `yaml:"resume_extractor"`
	Job        ExtractorConfig  `yaml:"job_extractor"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	Redis      RedisConfig      `yaml:"redis"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Server     ServerConfig     `yaml:"server"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logger     LoggerConfig     `yaml:"logger"`
}

// LoadConfig 加载配置。configPath 为空时按搜索路径查找，
// 找不到任何配置文件时返回内置默认值而不是报错（便于本地与测试环境）。
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".tirenohire", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths,
				filepath.Join(execDir, "config.yaml"),
				filepath.Join(execDir, "..", "config.yaml"))
		}
		for _, p := range searchPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	cfg := createDefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides 用环境变量覆盖凭据类配置
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_URL"); v != "" {
		cfg.LLM.APIURL = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		cfg.MySQL.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKeyID = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretAccessKey = v
	}
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
}

// createDefaultConfig 内置默认配置，测试中直接使用
func createDefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			APIURL:     "https://api.openai.com/v1/chat/completions",
			Model:      "gpt-4o-mini",
			TaskModels: map[string]string{},
			QPM:        60,
		},
		Resume: ExtractorConfig{
			Temperature:       0.1,
			MaxTokens:         4096,
			ExtractionTimeout: "60s",
			MaxRetries:        3,
		},
		Job: ExtractorConfig{
			Temperature:       0.1,
			MaxTokens:         4096,
			ExtractionTimeout: "60s",
			MaxRetries:        3,
		},
		Analyzer: AnalyzerConfig{
			Temperature:     0.2,
			MaxTokens:       8192,
			AnalysisTimeout: "120s",
			MaxRetries:      3,
		},
		Normalizer: NormalizerConfig{
			ChunkSize:        4000,
			ChunkOverlap:     200,
			URLProbeTimeout:  "10s",
			URLFetchTimeout:  "30s",
			MaxDownloadBytes: 32 << 20,
		},
		MySQL: MySQLConfig{
			Host:                   "localhost",
			Port:                   3306,
			Username:               "root",
			Database:               "tirenohire",
			MaxIdleConns:           10,
			MaxOpenConns:           100,
			ConnMaxLifetimeMinutes: 60,
			ConnectTimeoutSeconds:  10,
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    30,
			LogLevel:               2,
		},
		Redis: RedisConfig{
			Address:             "localhost:6379",
			DB:                  0,
			PoolSize:            10,
			MinIdleConns:        2,
			DialTimeoutSeconds:  5,
			ReadTimeoutSeconds:  3,
			WriteTimeoutSeconds: 3,
			MaxRetries:          3,
			URLKeyTTL:           "24h",
			ContentKeyTTL:       "72h",
			ExtractedKeyTTL:     "72h",
		},
		MinIO: MinIOConfig{
			Endpoint:     "localhost:9000",
			ResumeBucket: "resume-uploads",
			JobBucket:    "job-uploads",
			Enabled:      false,
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "tirenohire",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// NewDefaultConfig 暴露给测试使用的默认配置
func NewDefaultConfig() *Config {
	return createDefaultConfig()
}

// CreateSampleConfig 生成一份带默认值的样例配置文件
func CreateSampleConfig(filePath string) error {
	data, err := yaml.Marshal(createDefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化样例配置失败: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入样例配置失败 %s: %w", filePath, err)
	}
	return nil
}

// GetModelForTask 返回任务专用模型，未配置时回退默认模型
func (c *Config) GetModelForTask(taskName string) string {
	if m, ok := c.LLM.TaskModels[taskName]; ok && m != "" {
		return m
	}
	return c.LLM.Model
}

// GetDuration 解析形如 "30s" 的时长字符串，失败时返回默认值
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
