package processor

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/parser"
	"github.com/utkarsh5026/TireNoHire/internal/storage/models"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

// JobTextInput 结构化的职位文本提交。
// 除 Description 外均可省略，各字段拼成规范文本后进入统一归一化链路。
type JobTextInput struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Description      string   `json:"description"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
}

// canonicalText 把结构化输入拼成确定性的文本。
// 字段顺序固定，保证同样的输入总是得到同一内容哈希。
func (in *JobTextInput) canonicalText() string {
	var sb strings.Builder
	if in.Title != "" {
		sb.WriteString("Title: " + in.Title + "\n")
	}
	if in.Company != "" {
		sb.WriteString("Company: " + in.Company + "\n")
	}
	if in.Location != "" {
		sb.WriteString("Location: " + in.Location + "\n")
	}
	if in.Description != "" {
		sb.WriteString("\n" + in.Description + "\n")
	}
	if len(in.Requirements) > 0 {
		sb.WriteString("\nRequirements:\n")
		for _, r := range in.Requirements {
			sb.WriteString("- " + r + "\n")
		}
	}
	if len(in.Responsibilities) > 0 {
		sb.WriteString("\nResponsibilities:\n")
		for _, r := range in.Responsibilities {
			sb.WriteString("- " + r + "\n")
		}
	}
	return sb.String()
}

// IngestJobFile 入库一份职位描述文件
func (p *Pipeline) IngestJobFile(ctx context.Context, data []byte, filename string) (*models.Job, error) {
	const op = "IngestJobFile"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if len(data) == 0 {
		return nil, NewValidationError(op, "文件内容为空")
	}
	if filename == "" {
		return nil, NewValidationError(op, "文件名为空")
	}

	chunk, err := p.components.Normalizer.NormalizeFile(ctx, data, filename)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			return nil, NewUnsupportedFormatError(op, err.Error())
		}
		return nil, NewParseError(op, filename, err)
	}
	span.SetAttributes(attribute.String("content_hash", chunk.ContentHash))

	return p.completeJob(ctx, op, chunk, data, filepath.Ext(filename), "")
}

// IngestJobText 入库结构化职位文本
func (p *Pipeline) IngestJobText(ctx context.Context, input *JobTextInput) (*models.Job, error) {
	const op = "IngestJobText"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if input == nil {
		return nil, NewValidationError(op, "提交内容为空")
	}
	text := input.canonicalText()
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError(op, "职位文本为空")
	}

	label := input.Title
	if label == "" {
		label = "text-submission"
	}
	chunk, err := p.components.Normalizer.NormalizeText(ctx, text, label)
	if err != nil {
		return nil, NewParseError(op, label, err)
	}
	return p.completeJob(ctx, op, chunk, nil, "", input.Title)
}

// IngestJobURL 抓取并入库职位描述 URL
func (p *Pipeline) IngestJobURL(ctx context.Context, rawURL string) (*models.Job, error) {
	const op = "IngestJobURL"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(rawURL) == "" {
		return nil, NewValidationError(op, "URL 为空")
	}

	if contentHash := p.resolveURLHash(ctx, rawURL); contentHash != "" {
		existing, err := p.components.JobStore.FindJobByContentHash(ctx, contentHash)
		if err != nil {
			return nil, NewStorageError(op, contentHash, err)
		}
		if existing != nil && existing.Status == constants.StatusReady {
			p.logDebug("URL 缓存命中，跳过抓取", map[string]interface{}{"url": rawURL, "job_id": existing.JobID})
			return existing, nil
		}
	}

	chunk, err := p.components.Normalizer.NormalizeURL(ctx, rawURL)
	if err != nil {
		if errors.Is(err, parser.ErrUnsupportedFormat) {
			return nil, NewUnsupportedFormatError(op, err.Error())
		}
		return nil, NewParseError(op, rawURL, err)
	}

	record, err := p.completeJob(ctx, op, chunk, nil, "", "")
	if err != nil {
		return nil, err
	}
	p.rememberURLHash(ctx, rawURL, chunk.ContentHash)
	return record, nil
}

// completeJob 职位侧的去重、两阶段落库与提取。
// titleHint 来自结构化提交，在提取降级为占位标题时回填。
func (p *Pipeline) completeJob(ctx context.Context, op string, chunk *types.DocumentChunk, raw []byte, ext, titleHint string) (*models.Job, error) {
	existing, err := p.components.JobStore.FindJobByContentHash(ctx, chunk.ContentHash)
	if err != nil {
		return nil, NewStorageError(op, chunk.ContentHash, err)
	}
	if existing != nil && existing.Status == constants.StatusReady {
		p.logDebug("内容哈希命中既有职位", map[string]interface{}{"job_id": existing.JobID})
		return existing, nil
	}

	record := existing
	if record == nil {
		record = &models.Job{
			JobID:       uuid.NewString(),
			ContentHash: chunk.ContentHash,
		}
	}
	record.SourceType = chunk.SourceType
	record.SourceName = chunk.SourceName
	record.TextContent = chunk.RawText
	record.Status = constants.StatusProcessing
	record.ErrorMessage = ""
	record.ParsedData = nil

	if err := p.components.JobStore.SaveJob(ctx, record); err != nil {
		return nil, NewStorageError(op, record.JobID, err)
	}

	if p.components.Archiver != nil && len(raw) > 0 {
		if key, err := p.components.Archiver.ArchiveJobRaw(ctx, chunk.ContentHash, ext, raw); err != nil {
			p.settings.Logger.Warn().Err(err).Str("job_id", record.JobID).Msg("归档职位原始文件失败")
		} else {
			record.RawObjectKey = key
		}
	}
	p.cacheChunk(ctx, chunk)

	var parsed types.JobData
	haveParsed := p.cachedExtracted(ctx, chunk.ContentHash, &parsed)
	if !haveParsed {
		result, err := p.components.JobExtractor.Extract(ctx, chunk.RawText)
		if err != nil {
			p.failJob(ctx, record, err)
			return nil, NewExtractionError(op, record.JobID, err)
		}
		parsed = *result
		if parsed.Title == constants.JobTitleFallback && titleHint != "" {
			parsed.Title = titleHint
		}
		p.cacheExtracted(ctx, chunk.ContentHash, &parsed)
	}

	blob, err := json.Marshal(&parsed)
	if err != nil {
		p.failJob(ctx, record, err)
		return nil, NewExtractionError(op, record.JobID, err)
	}

	record.Title = parsed.Title
	record.ParsedData = datatypes.JSON(blob)
	record.Status = constants.StatusReady
	record.ErrorMessage = ""
	if err := p.components.JobStore.SaveJob(ctx, record); err != nil {
		return nil, NewStorageError(op, record.JobID, err)
	}

	p.settings.Logger.Info().
		Str("job_id", record.JobID).
		Str("hash", chunk.ContentHash).
		Str("title", record.Title).
		Bool("extracted_from_cache", haveParsed).
		Msg("职位入库完成")
	return record, nil
}

func (p *Pipeline) failJob(ctx context.Context, record *models.Job, cause error) {
	record.Status = constants.StatusError
	record.ErrorMessage = cause.Error()
	record.ParsedData = nil
	if err := p.components.JobStore.SaveJob(ctx, record); err != nil {
		p.settings.Logger.Error().Err(err).Str("job_id", record.JobID).Msg("写入失败状态失败")
	}
}

// GetJob 按 ID 查询职位
func (p *Pipeline) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	const op = "GetJob"
	record, err := p.components.JobStore.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, NewStorageError(op, jobID, err)
	}
	if record == nil {
		return nil, NewNotFoundError(op, jobID)
	}
	return record, nil
}

// ListJobs 列举全部职位
func (p *Pipeline) ListJobs(ctx context.Context) ([]models.Job, error) {
	records, err := p.components.JobStore.ListJobs(ctx)
	if err != nil {
		return nil, NewStorageError("ListJobs", "", err)
	}
	return records, nil
}
