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

// IngestResumeFile 入库一份简历文件。
// 同一内容（按字节哈希）重复入库幂等返回既有就绪记录。
func (p *Pipeline) IngestResumeFile(ctx context.Context, data []byte, filename string) (*models.Resume, error) {
	const op = "IngestResumeFile"
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

	return p.completeResume(ctx, op, chunk, data, filepath.Ext(filename))
}

// IngestResumeText 入库一段简历纯文本
func (p *Pipeline) IngestResumeText(ctx context.Context, text, label string) (*models.Resume, error) {
	const op = "IngestResumeText"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError(op, "文本内容为空")
	}
	if label == "" {
		label = "text-submission"
	}

	chunk, err := p.components.Normalizer.NormalizeText(ctx, text, label)
	if err != nil {
		return nil, NewParseError(op, label, err)
	}
	return p.completeResume(ctx, op, chunk, nil, "")
}

// IngestResumeURL 抓取并入库一份简历 URL。
// 命中 url: 缓存且对应记录已就绪时跳过抓取。
func (p *Pipeline) IngestResumeURL(ctx context.Context, rawURL string) (*models.Resume, error) {
	const op = "IngestResumeURL"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(rawURL) == "" {
		return nil, NewValidationError(op, "URL 为空")
	}

	if contentHash := p.resolveURLHash(ctx, rawURL); contentHash != "" {
		existing, err := p.components.ResumeStore.FindResumeByContentHash(ctx, contentHash)
		if err != nil {
			return nil, NewStorageError(op, contentHash, err)
		}
		if existing != nil && existing.Status == constants.StatusReady {
			p.logDebug("URL 缓存命中，跳过抓取", map[string]interface{}{"url": rawURL, "resume_id": existing.ResumeID})
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

	record, err := p.completeResume(ctx, op, chunk, nil, "")
	if err != nil {
		return nil, err
	}
	p.rememberURLHash(ctx, rawURL, chunk.ContentHash)
	return record, nil
}

// completeResume 去重、两阶段落库并驱动结构化提取。
// 新内容必定先以 processing 状态落库，提取结束后再置 ready/error。
func (p *Pipeline) completeResume(ctx context.Context, op string, chunk *types.DocumentChunk, raw []byte, ext string) (*models.Resume, error) {
	existing, err := p.components.ResumeStore.FindResumeByContentHash(ctx, chunk.ContentHash)
	if err != nil {
		return nil, NewStorageError(op, chunk.ContentHash, err)
	}
	if existing != nil && existing.Status == constants.StatusReady {
		p.logDebug("内容哈希命中既有简历", map[string]interface{}{"resume_id": existing.ResumeID})
		return existing, nil
	}

	record := existing
	if record == nil {
		record = &models.Resume{
			ResumeID:    uuid.NewString(),
			ContentHash: chunk.ContentHash,
		}
	}
	record.SourceType = chunk.SourceType
	record.SourceName = chunk.SourceName
	record.TextContent = chunk.RawText
	record.Status = constants.StatusProcessing
	record.ErrorMessage = ""
	record.ParsedData = nil

	if err := p.components.ResumeStore.SaveResume(ctx, record); err != nil {
		return nil, NewStorageError(op, record.ResumeID, err)
	}

	if p.components.Archiver != nil && len(raw) > 0 {
		if key, err := p.components.Archiver.ArchiveResumeRaw(ctx, chunk.ContentHash, ext, raw); err != nil {
			p.settings.Logger.Warn().Err(err).Str("resume_id", record.ResumeID).Msg("归档简历原始文件失败")
		} else {
			record.RawObjectKey = key
		}
	}
	p.cacheChunk(ctx, chunk)

	var parsed types.ResumeData
	haveParsed := p.cachedExtracted(ctx, chunk.ContentHash, &parsed)
	if !haveParsed {
		result, err := p.components.ResumeExtractor.Extract(ctx, chunk.RawText)
		if err != nil {
			p.failResume(ctx, record, err)
			return nil, NewExtractionError(op, record.ResumeID, err)
		}
		parsed = *result
		p.cacheExtracted(ctx, chunk.ContentHash, result)
	}

	blob, err := json.Marshal(&parsed)
	if err != nil {
		p.failResume(ctx, record, err)
		return nil, NewExtractionError(op, record.ResumeID, err)
	}

	record.ParsedData = datatypes.JSON(blob)
	record.Status = constants.StatusReady
	record.ErrorMessage = ""
	if err := p.components.ResumeStore.SaveResume(ctx, record); err != nil {
		return nil, NewStorageError(op, record.ResumeID, err)
	}

	p.settings.Logger.Info().
		Str("resume_id", record.ResumeID).
		Str("hash", chunk.ContentHash).
		Bool("extracted_from_cache", haveParsed).
		Msg("简历入库完成")
	return record, nil
}

// failResume 把记录置为 error 状态。落库失败只记日志，原始错误优先上抛。
func (p *Pipeline) failResume(ctx context.Context, record *models.Resume, cause error) {
	record.Status = constants.StatusError
	record.ErrorMessage = cause.Error()
	record.ParsedData = nil
	if err := p.components.ResumeStore.SaveResume(ctx, record); err != nil {
		p.settings.Logger.Error().Err(err).Str("resume_id", record.ResumeID).Msg("写入失败状态失败")
	}
}

// GetResume 按 ID 查询简历
func (p *Pipeline) GetResume(ctx context.Context, resumeID string) (*models.Resume, error) {
	const op = "GetResume"
	record, err := p.components.ResumeStore.FindResumeByID(ctx, resumeID)
	if err != nil {
		return nil, NewStorageError(op, resumeID, err)
	}
	if record == nil {
		return nil, NewNotFoundError(op, resumeID)
	}
	return record, nil
}

// ListResumes 列举全部简历
func (p *Pipeline) ListResumes(ctx context.Context) ([]models.Resume, error) {
	records, err := p.components.ResumeStore.ListResumes(ctx)
	if err != nil {
		return nil, NewStorageError("ListResumes", "", err)
	}
	return records, nil
}
