package processor

import (
	"errors"
	"fmt"
)

// 流水线错误分类哨兵。HTTP 层据此映射状态码。
var (
	// ErrValidation 输入校验失败（空输入、非法参数）
	ErrValidation = errors.New("输入校验失败")
	// ErrUnsupportedFormat 不支持的文件/内容格式
	ErrUnsupportedFormat = errors.New("不支持的内容格式")
	// ErrParse 归一化/解析阶段失败
	ErrParse = errors.New("内容解析失败")
	// ErrExtraction 结构化提取硬失败（降级兜底之外的情况）
	ErrExtraction = errors.New("结构化提取失败")
	// ErrAnalysis 匹配分析失败
	ErrAnalysis = errors.New("匹配分析失败")
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrNotReady 记录尚未就绪（processing 或 error 状态）
	ErrNotReady = errors.New("记录尚未就绪")
	// ErrStorage 文档库读写失败
	ErrStorage = errors.New("存储操作失败")
)

// PipelineError 携带操作名与实体标识的结构化错误
type PipelineError struct {
	// Op 出错的操作，如 "IngestResumeFile"
	Op string
	// EntityID 相关实体标识（resume_id / job_id / content_hash），可为空
	EntityID string
	// BaseErr 错误分类哨兵
	BaseErr error
	// Detail 具体原因
	Detail string
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("[%s]", e.Op)
	if e.EntityID != "" {
		msg += fmt.Sprintf(" 实体 %s", e.EntityID)
	}
	if e.BaseErr != nil {
		msg += ": " + e.BaseErr.Error()
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.BaseErr
}

// Is 支持 errors.Is 与分类哨兵比较
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newPipelineError(op, entityID string, base error, detail string) *PipelineError {
	return &PipelineError{Op: op, EntityID: entityID, BaseErr: base, Detail: detail}
}

// NewValidationError 输入校验错误
func NewValidationError(op, detail string) *PipelineError {
	return newPipelineError(op, "", ErrValidation, detail)
}

// NewUnsupportedFormatError 不支持的格式
func NewUnsupportedFormatError(op, detail string) *PipelineError {
	return newPipelineError(op, "", ErrUnsupportedFormat, detail)
}

// NewParseError 解析/归一化失败
func NewParseError(op, entityID string, err error) *PipelineError {
	return newPipelineError(op, entityID, ErrParse, errDetail(err))
}

// NewExtractionError 结构化提取硬失败
func NewExtractionError(op, entityID string, err error) *PipelineError {
	return newPipelineError(op, entityID, ErrExtraction, errDetail(err))
}

// NewAnalysisError 匹配分析失败
func NewAnalysisError(op, entityID string, err error) *PipelineError {
	return newPipelineError(op, entityID, ErrAnalysis, errDetail(err))
}

// NewNotFoundError 记录不存在
func NewNotFoundError(op, entityID string) *PipelineError {
	return newPipelineError(op, entityID, ErrNotFound, "")
}

// NewNotReadyError 记录尚未就绪
func NewNotReadyError(op, entityID, status string) *PipelineError {
	return newPipelineError(op, entityID, ErrNotReady, "当前状态 "+status)
}

// NewStorageError 存储读写失败
func NewStorageError(op, entityID string, err error) *PipelineError {
	return newPipelineError(op, entityID, ErrStorage, errDetail(err))
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
