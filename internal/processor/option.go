package processor

import (
	"github.com/rs/zerolog"

	"github.com/utkarsh5026/TireNoHire/internal/logger"
)

// Components 流水线依赖集合。
// Cache 与 Archiver 允许为 nil，对应能力自动关闭。
type Components struct {
	Normalizer      ContentNormalizer
	ResumeExtractor ResumeExtractor
	JobExtractor    JobExtractor
	Analyzer        MatchAnalyzer
	ResumeStore     ResumeStore
	JobStore        JobStore
	MatchStore      MatchStore
	Cache           CacheStore
	Archiver        RawArchiver
}

// Settings 流水线行为设置
type Settings struct {
	Logger zerolog.Logger
	Debug  bool
}

// ComponentOpt 组件装配选项
type ComponentOpt func(*Components)

// NewComponents 按选项装配组件集合
func NewComponents(opts ...ComponentOpt) *Components {
	c := &Components{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithNormalizer 注入归一化器
func WithNormalizer(n ContentNormalizer) ComponentOpt {
	return func(c *Components) { c.Normalizer = n }
}

// WithResumeExtractor 注入简历提取器
func WithResumeExtractor(e ResumeExtractor) ComponentOpt {
	return func(c *Components) { c.ResumeExtractor = e }
}

// WithJobExtractor 注入职位提取器
func WithJobExtractor(e JobExtractor) ComponentOpt {
	return func(c *Components) { c.JobExtractor = e }
}

// WithAnalyzer 注入匹配分析器
func WithAnalyzer(a MatchAnalyzer) ComponentOpt {
	return func(c *Components) { c.Analyzer = a }
}

// WithResumeStore 注入简历存储
func WithResumeStore(s ResumeStore) ComponentOpt {
	return func(c *Components) { c.ResumeStore = s }
}

// WithJobStore 注入职位存储
func WithJobStore(s JobStore) ComponentOpt {
	return func(c *Components) { c.JobStore = s }
}

// WithMatchStore 注入匹配记录存储
func WithMatchStore(s MatchStore) ComponentOpt {
	return func(c *Components) { c.MatchStore = s }
}

// WithCache 注入缓存层
func WithCache(c CacheStore) ComponentOpt {
	return func(comp *Components) { comp.Cache = c }
}

// WithArchiver 注入原始文件归档
func WithArchiver(a RawArchiver) ComponentOpt {
	return func(c *Components) { c.Archiver = a }
}

// SettingOpt 行为设置选项
type SettingOpt func(*Settings)

// WithLogger 指定流水线 logger
func WithLogger(l zerolog.Logger) SettingOpt {
	return func(s *Settings) { s.Logger = l }
}

// WithDebug 开启调试日志
func WithDebug(debug bool) SettingOpt {
	return func(s *Settings) { s.Debug = debug }
}

func defaultSettings() *Settings {
	return &Settings{
		Logger: logger.WithComponent("pipeline"),
	}
}
