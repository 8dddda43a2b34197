// Package processor 编排归一化、去重、提取、匹配与持久化的完整流水线。
// 依赖全部以小接口注入，便于测试替换。
package processor

import (
	"context"

	"github.com/utkarsh5026/TireNoHire/internal/storage/models"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

// ContentNormalizer 把输入载体归一化为文本与指纹
type ContentNormalizer interface {
	NormalizeFile(ctx context.Context, data []byte, filename string) (*types.DocumentChunk, error)
	NormalizeText(ctx context.Context, text, label string) (*types.DocumentChunk, error)
	NormalizeURL(ctx context.Context, rawURL string) (*types.DocumentChunk, error)
}

// ResumeExtractor 简历结构化提取
type ResumeExtractor interface {
	Extract(ctx context.Context, resumeText string) (*types.ResumeData, error)
}

// JobExtractor 职位结构化提取
type JobExtractor interface {
	Extract(ctx context.Context, jobText string) (*types.JobData, error)
}

// MatchAnalyzer 简历-职位匹配分析
type MatchAnalyzer interface {
	Analyze(ctx context.Context, resume *types.ResumeData, job *types.JobData) (*types.MatchAnalysis, error)
}

// ResumeStore 简历持久化。Find* 未找到返回 (nil, nil)。
type ResumeStore interface {
	SaveResume(ctx context.Context, resume *models.Resume) error
	FindResumeByID(ctx context.Context, resumeID string) (*models.Resume, error)
	FindResumeByContentHash(ctx context.Context, contentHash string) (*models.Resume, error)
	ListResumes(ctx context.Context) ([]models.Resume, error)
}

// JobStore 职位持久化。Find* 未找到返回 (nil, nil)。
type JobStore interface {
	SaveJob(ctx context.Context, job *models.Job) error
	FindJobByID(ctx context.Context, jobID string) (*models.Job, error)
	FindJobByContentHash(ctx context.Context, contentHash string) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
}

// MatchStore 匹配记录持久化
type MatchStore interface {
	SaveMatch(ctx context.Context, record *models.MatchRecord) error
	FindMatchByPair(ctx context.Context, resumeID, jobID string) (*models.MatchRecord, error)
	ListMatchesByJob(ctx context.Context, jobID string) ([]models.MatchRecord, error)
}

// CacheStore 按命名空间访问缓存，全部调用为尽力而为
type CacheStore interface {
	GetURLContentHash(ctx context.Context, urlHash string) (string, error)
	SetURLContentHash(ctx context.Context, urlHash, contentHash string) error
	GetContent(ctx context.Context, contentHash string) (string, error)
	SetContent(ctx context.Context, contentHash, text string) error
	GetMeta(ctx context.Context, contentHash string) (string, error)
	SetMeta(ctx context.Context, contentHash, metaJSON string) error
	GetExtracted(ctx context.Context, contentHash string) (string, error)
	SetExtracted(ctx context.Context, contentHash, dataJSON string) error
}

// RawArchiver 原始上传字节归档
type RawArchiver interface {
	ArchiveResumeRaw(ctx context.Context, contentHash, ext string, data []byte) (string, error)
	ArchiveJobRaw(ctx context.Context, contentHash, ext string, data []byte) (string, error)
}
