package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/utkarsh5026/TireNoHire/internal/analyzer"
	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/storage/models"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

// Match 计算或返回一对 (简历, 职位) 的匹配分析。
// 既有记录直接复用，forceRefresh 为 true 时重新分析并覆盖。
// 分析结果的持久化失败只记日志，不影响返回。
func (p *Pipeline) Match(ctx context.Context, resumeID, jobID string, forceRefresh bool) (*types.MatchResult, error) {
	const op = "Match"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(
		attribute.String("resume_id", resumeID),
		attribute.String("job_id", jobID),
		attribute.Bool("force_refresh", forceRefresh),
	)

	// 既有记录先于两侧就绪检查：简历或职位临时回到 processing 状态时，
	// 非强制刷新的请求仍能拿到已持久化的分析结果
	existing, err := p.components.MatchStore.FindMatchByPair(ctx, resumeID, jobID)
	if err != nil {
		return nil, NewStorageError(op, resumeID+"/"+jobID, err)
	}
	if existing != nil && !forceRefresh {
		var analysis types.MatchAnalysis
		if err := json.Unmarshal(existing.Analysis, &analysis); err == nil {
			p.logDebug("匹配记录命中", map[string]interface{}{"match_id": existing.MatchID})
			return &types.MatchResult{
				MatchID:    existing.MatchID,
				ResumeID:   resumeID,
				JobID:      jobID,
				Analysis:   &analysis,
				AnalyzedAt: existing.AnalyzedAt,
				FromCache:  true,
			}, nil
		}
		p.settings.Logger.Warn().Str("match_id", existing.MatchID).Msg("既有匹配记录损坏，重新分析")
	}

	resume, err := p.requireReadyResume(ctx, op, resumeID)
	if err != nil {
		return nil, err
	}
	job, err := p.requireReadyJob(ctx, op, jobID)
	if err != nil {
		return nil, err
	}

	var resumeData types.ResumeData
	if err := json.Unmarshal(resume.ParsedData, &resumeData); err != nil {
		return nil, NewStorageError(op, resumeID, fmt.Errorf("简历结构化数据损坏: %w", err))
	}
	var jobData types.JobData
	if err := json.Unmarshal(job.ParsedData, &jobData); err != nil {
		return nil, NewStorageError(op, jobID, fmt.Errorf("职位结构化数据损坏: %w", err))
	}

	analysis, err := p.components.Analyzer.Analyze(ctx, &resumeData, &jobData)
	if err != nil {
		return nil, NewAnalysisError(op, resumeID+"/"+jobID, err)
	}

	record := existing
	if record == nil {
		record = &models.MatchRecord{
			MatchID:  uuid.NewString(),
			ResumeID: resumeID,
			JobID:    jobID,
		}
	}
	analyzedAt := time.Now()
	if blob, err := json.Marshal(analysis); err == nil {
		record.Analysis = datatypes.JSON(blob)
		record.OverallScore = analysis.OverallScore
		record.AnalyzedAt = analyzedAt
		if err := p.components.MatchStore.SaveMatch(ctx, record); err != nil {
			p.settings.Logger.Warn().Err(err).
				Str("resume_id", resumeID).
				Str("job_id", jobID).
				Msg("匹配记录持久化失败，仅返回内存结果")
		}
	}

	return &types.MatchResult{
		MatchID:    record.MatchID,
		ResumeID:   resumeID,
		JobID:      jobID,
		Analysis:   analysis,
		AnalyzedAt: analyzedAt,
		FromCache:  false,
	}, nil
}

// GetMatch 只读查询既有匹配记录，不触发分析
func (p *Pipeline) GetMatch(ctx context.Context, resumeID, jobID string) (*types.MatchResult, error) {
	const op = "GetMatch"
	record, err := p.components.MatchStore.FindMatchByPair(ctx, resumeID, jobID)
	if err != nil {
		return nil, NewStorageError(op, resumeID+"/"+jobID, err)
	}
	if record == nil {
		return nil, NewNotFoundError(op, resumeID+"/"+jobID)
	}
	var analysis types.MatchAnalysis
	if err := json.Unmarshal(record.Analysis, &analysis); err != nil {
		return nil, NewStorageError(op, record.MatchID, fmt.Errorf("匹配记录损坏: %w", err))
	}
	return &types.MatchResult{
		MatchID:    record.MatchID,
		ResumeID:   record.ResumeID,
		JobID:      record.JobID,
		Analysis:   &analysis,
		AnalyzedAt: record.AnalyzedAt,
		FromCache:  true,
	}, nil
}

// BatchMatch 对多份简历匹配同一职位。
// 职位侧错误直接上抛；单份简历失败跳过并记日志，结果按总分倒序。
func (p *Pipeline) BatchMatch(ctx context.Context, resumeIDs []string, jobID string) ([]*types.MatchResult, error) {
	const op = "BatchMatch"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if len(resumeIDs) == 0 {
		return nil, NewValidationError(op, "简历列表为空")
	}
	if _, err := p.requireReadyJob(ctx, op, jobID); err != nil {
		return nil, err
	}

	results := make([]*types.MatchResult, 0, len(resumeIDs))
	for _, resumeID := range resumeIDs {
		result, err := p.Match(ctx, resumeID, jobID, false)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			p.settings.Logger.Warn().Err(err).
				Str("resume_id", resumeID).
				Str("job_id", jobID).
				Msg("批量匹配中单项失败，跳过")
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Analysis.OverallScore > results[j].Analysis.OverallScore
	})
	return results, nil
}

// CompareCandidates 对同一职位的多个候选人做横向对比
func (p *Pipeline) CompareCandidates(ctx context.Context, resumeIDs []string, jobID string) (*types.ComparisonReport, error) {
	const op = "CompareCandidates"
	ctx, span := pipelineTracer.Start(ctx, op)
	defer span.End()

	if len(resumeIDs) < 2 {
		return nil, NewValidationError(op, analyzer.ErrInsufficientCandidates.Error())
	}

	results, err := p.BatchMatch(ctx, resumeIDs, jobID)
	if err != nil {
		return nil, err
	}

	names := p.candidateNames(ctx, results)
	report, err := analyzer.CompareCandidates(jobID, results, names)
	if err != nil {
		return nil, NewValidationError(op, err.Error())
	}
	return report, nil
}

// candidateNames 从简历结构化数据里提取候选人姓名，失败的条目留空
func (p *Pipeline) candidateNames(ctx context.Context, results []*types.MatchResult) map[string]string {
	names := make(map[string]string, len(results))
	for _, r := range results {
		record, err := p.components.ResumeStore.FindResumeByID(ctx, r.ResumeID)
		if err != nil || record == nil || record.ParsedData == nil {
			continue
		}
		var data types.ResumeData
		if err := json.Unmarshal(record.ParsedData, &data); err == nil {
			names[r.ResumeID] = data.ContactInfo.Name
		}
	}
	return names
}

// requireReadyResume 取回简历并要求其处于 ready 状态
func (p *Pipeline) requireReadyResume(ctx context.Context, op, resumeID string) (*models.Resume, error) {
	record, err := p.components.ResumeStore.FindResumeByID(ctx, resumeID)
	if err != nil {
		return nil, NewStorageError(op, resumeID, err)
	}
	if record == nil {
		return nil, NewNotFoundError(op, resumeID)
	}
	if record.Status != constants.StatusReady || record.ParsedData == nil {
		return nil, NewNotReadyError(op, resumeID, record.Status)
	}
	return record, nil
}

// requireReadyJob 取回职位并要求其处于 ready 状态
func (p *Pipeline) requireReadyJob(ctx context.Context, op, jobID string) (*models.Job, error) {
	record, err := p.components.JobStore.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, NewStorageError(op, jobID, err)
	}
	if record == nil {
		return nil, NewNotFoundError(op, jobID)
	}
	if record.Status != constants.StatusReady || record.ParsedData == nil {
		return nil, NewNotReadyError(op, jobID, record.Status)
	}
	return record, nil
}
