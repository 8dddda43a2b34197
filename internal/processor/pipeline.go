package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"go.opentelemetry.io/otel"

	"github.com/utkarsh5026/TireNoHire/internal/analyzer"
	"github.com/utkarsh5026/TireNoHire/internal/config"
	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/extractor"
	"github.com/utkarsh5026/TireNoHire/internal/parser"
	"github.com/utkarsh5026/TireNoHire/internal/storage"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

var pipelineTracer = otel.Tracer("tirenohire/processor")

// Pipeline 流水线编排器
type Pipeline struct {
	components *Components
	settings   *Settings
}

// NewPipeline 装配流水线。归一化器、提取器、分析器与三个存储为必选项。
func NewPipeline(components *Components, opts ...SettingOpt) (*Pipeline, error) {
	if components == nil {
		return nil, fmt.Errorf("组件集合不能为空")
	}
	missing := ""
	switch {
	case components.Normalizer == nil:
		missing = "Normalizer"
	case components.ResumeExtractor == nil:
		missing = "ResumeExtractor"
	case components.JobExtractor == nil:
		missing = "JobExtractor"
	case components.Analyzer == nil:
		missing = "Analyzer"
	case components.ResumeStore == nil:
		missing = "ResumeStore"
	case components.JobStore == nil:
		missing = "JobStore"
	case components.MatchStore == nil:
		missing = "MatchStore"
	}
	if missing != "" {
		return nil, fmt.Errorf("缺少必需组件: %s", missing)
	}

	settings := defaultSettings()
	for _, opt := range opts {
		opt(settings)
	}
	return &Pipeline{components: components, settings: settings}, nil
}

// ChatModelFactory 按模型名创建聊天模型客户端
type ChatModelFactory func(modelName string) (model.BaseChatModel, error)

// CreatePipelineFromConfig 按配置装配真实组件（生产入口使用）。
// 各任务通过 llm.task_models 指定专用模型，同名模型复用同一客户端。
func CreatePipelineFromConfig(ctx context.Context, cfg *config.Config, newModel ChatModelFactory, store *storage.Storage, opts ...SettingOpt) (*Pipeline, error) {
	if cfg == nil || newModel == nil || store == nil {
		return nil, fmt.Errorf("配置、模型工厂与存储均不能为空")
	}

	normalizer, err := parser.NewContentNormalizer(ctx, &cfg.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("创建归一化器失败: %w", err)
	}

	clients := map[string]model.BaseChatModel{}
	modelFor := func(task string) (model.BaseChatModel, error) {
		name := cfg.GetModelForTask(task)
		if m, ok := clients[name]; ok {
			return m, nil
		}
		m, err := newModel(name)
		if err != nil {
			return nil, fmt.Errorf("创建 %s 任务模型失败: %w", task, err)
		}
		clients[name] = m
		return m, nil
	}

	resumeModel, err := modelFor(constants.TaskResumeExtraction)
	if err != nil {
		return nil, err
	}
	jobModel, err := modelFor(constants.TaskJobExtraction)
	if err != nil {
		return nil, err
	}
	analyzerModel, err := modelFor(constants.TaskMatchAnalysis)
	if err != nil {
		return nil, err
	}

	componentOpts := []ComponentOpt{
		WithNormalizer(normalizer),
		WithResumeExtractor(extractor.NewResumeExtractor(resumeModel,
			extractor.WithTimeout(config.GetDuration(cfg.Resume.ExtractionTimeout, 0)),
			extractor.WithMaxAttempts(cfg.Resume.MaxRetries),
			extractor.WithQPM(cfg.LLM.QPM),
		)),
		WithJobExtractor(extractor.NewJobExtractor(jobModel,
			extractor.WithTimeout(config.GetDuration(cfg.Job.ExtractionTimeout, 0)),
			extractor.WithMaxAttempts(cfg.Job.MaxRetries),
			extractor.WithQPM(cfg.LLM.QPM),
		)),
		WithAnalyzer(analyzer.NewMatchAnalyzer(analyzerModel,
			extractor.WithTimeout(config.GetDuration(cfg.Analyzer.AnalysisTimeout, 0)),
			extractor.WithMaxAttempts(cfg.Analyzer.MaxRetries),
			extractor.WithQPM(cfg.LLM.QPM),
		)),
		WithResumeStore(store.MySQL),
		WithJobStore(store.MySQL),
		WithMatchStore(store.MySQL),
	}
	if store.Redis != nil {
		componentOpts = append(componentOpts, WithCache(store.Redis))
	}
	if store.MinIO != nil {
		componentOpts = append(componentOpts, WithArchiver(store.MinIO))
	}

	return NewPipeline(NewComponents(componentOpts...), opts...)
}

// --- 缓存辅助，全部尽力而为 ---

// cacheChunk 把归一化文本与元数据写入缓存
func (p *Pipeline) cacheChunk(ctx context.Context, chunk *types.DocumentChunk) {
	if p.components.Cache == nil {
		return
	}
	if err := p.components.Cache.SetContent(ctx, chunk.ContentHash, chunk.RawText); err != nil {
		p.settings.Logger.Warn().Err(err).Str("hash", chunk.ContentHash).Msg("写内容缓存失败")
	}
	if chunk.Metadata != nil {
		if metaJSON, err := json.Marshal(chunk.Metadata); err == nil {
			if err := p.components.Cache.SetMeta(ctx, chunk.ContentHash, string(metaJSON)); err != nil {
				p.settings.Logger.Warn().Err(err).Str("hash", chunk.ContentHash).Msg("写元数据缓存失败")
			}
		}
	}
}

// cachedExtracted 读取 extracted: 缓存并反序列化到 v，命中返回 true
func (p *Pipeline) cachedExtracted(ctx context.Context, contentHash string, v interface{}) bool {
	if p.components.Cache == nil {
		return false
	}
	raw, err := p.components.Cache.GetExtracted(ctx, contentHash)
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			p.settings.Logger.Warn().Err(err).Str("hash", contentHash).Msg("读提取缓存失败")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		p.settings.Logger.Warn().Err(err).Str("hash", contentHash).Msg("提取缓存内容损坏，忽略")
		return false
	}
	return true
}

// cacheExtracted 写 extracted: 缓存
func (p *Pipeline) cacheExtracted(ctx context.Context, contentHash string, v interface{}) {
	if p.components.Cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.components.Cache.SetExtracted(ctx, contentHash, string(data)); err != nil {
		p.settings.Logger.Warn().Err(err).Str("hash", contentHash).Msg("写提取缓存失败")
	}
}

// resolveURLHash 通过 url: 映射查找该 URL 已知的内容哈希，未命中返回空串
func (p *Pipeline) resolveURLHash(ctx context.Context, rawURL string) string {
	if p.components.Cache == nil {
		return ""
	}
	contentHash, err := p.components.Cache.GetURLContentHash(ctx, parser.HashString(rawURL))
	if err != nil {
		if !errors.Is(err, storage.ErrCacheMiss) {
			p.settings.Logger.Warn().Err(err).Str("url", rawURL).Msg("读 URL 缓存失败")
		}
		return ""
	}
	return contentHash
}

// rememberURLHash 记录 URL -> 内容哈希映射
func (p *Pipeline) rememberURLHash(ctx context.Context, rawURL, contentHash string) {
	if p.components.Cache == nil {
		return
	}
	if err := p.components.Cache.SetURLContentHash(ctx, parser.HashString(rawURL), contentHash); err != nil {
		p.settings.Logger.Warn().Err(err).Str("url", rawURL).Msg("写 URL 缓存失败")
	}
}

func (p *Pipeline) logDebug(msg string, kv map[string]interface{}) {
	if !p.settings.Debug {
		return
	}
	ev := p.settings.Logger.Debug()
	for k, v := range kv {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
