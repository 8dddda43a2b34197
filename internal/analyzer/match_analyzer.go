// Package analyzer 基于 LLM 对结构化简历与职位数据做匹配打分，
// 并提供多候选人横向对比。
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"

	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/extractor"
	"github.com/utkarsh5026/TireNoHire/internal/logger"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

const matchSystemPrompt = `You are an expert recruiter and ATS specialist. You evaluate how well a candidate's resume matches a job description.
Always respond with a single JSON object and nothing else.`

const matchUserPromptTemplate = `Evaluate the match between the candidate resume and the job description below.
Return a JSON object with this exact shape:

{
  "overall_score": 0,
  "summary": "",
  "key_strengths": [""],
  "key_gaps": [""],
  "section_scores": {
    "skills": {"score": 0, "weight": 0.40, "details": ""},
    "experience": {"score": 0, "weight": 0.30, "details": ""},
    "education": {"score": 0, "weight": 0.15, "details": ""},
    "keywords": {"score": 0, "weight": 0.15, "details": ""}
  },
  "skill_matches": [{"skill": "", "present": true, "required": true, "score": 0, "comment": ""}],
  "experience_matches": [{"requirement": "", "matched": true, "score": 0, "evidence": ""}],
  "education_matches": [{"requirement": "", "matched": true, "score": 0, "evidence": ""}],
  "keyword_matches": [{"keyword": "", "present": true, "frequency": 0}],
  "improvement_suggestions": [{"suggestion": "", "priority": "High", "impact": 5}],
  "ats_optimization_tips": [""],
  "interview_preparation": [""],
  "career_path_alignment": ""
}

Rules:
- All scores are 0-100.
- "priority" is one of High, Medium, Low; "impact" is 1-10.
- Cover every job requirement in the match details.

Candidate resume (JSON):
%s

Job description (JSON):
%s`

// MatchAnalyzer 简历-职位匹配分析器。
// 与提取器不同，分析失败不做降级，直接返回错误由上游处理。
type MatchAnalyzer struct {
	client *extractor.Client
	log    zerolog.Logger
}

// NewMatchAnalyzer 创建匹配分析器
func NewMatchAnalyzer(m model.BaseChatModel, opts ...extractor.Option) *MatchAnalyzer {
	return &MatchAnalyzer{
		client: extractor.NewClient(m, "match_analyzer", opts...),
		log:    logger.WithComponent("match_analyzer"),
	}
}

// Analyze 对一对 (简历, 职位) 结构化数据做匹配分析
func (a *MatchAnalyzer) Analyze(ctx context.Context, resume *types.ResumeData, job *types.JobData) (*types.MatchAnalysis, error) {
	if resume == nil || job == nil {
		return nil, fmt.Errorf("匹配分析缺少输入: resume=%v job=%v", resume != nil, job != nil)
	}

	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return nil, fmt.Errorf("序列化简历数据失败: %w", err)
	}
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("序列化职位数据失败: %w", err)
	}

	userPrompt := fmt.Sprintf(matchUserPromptTemplate, resumeJSON, jobJSON)
	var analysis types.MatchAnalysis
	if err := a.client.GenerateJSON(ctx, matchSystemPrompt, userPrompt, &analysis); err != nil {
		return nil, fmt.Errorf("匹配分析调用失败: %w", err)
	}

	if err := a.finalizeAnalysis(&analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// finalizeAnalysis 校验并规范化分析结果：
// 四个维度必须齐全，权重强制为固定配比，总分由维度分加权重算。
func (a *MatchAnalyzer) finalizeAnalysis(analysis *types.MatchAnalysis) error {
	weights := map[string]float64{
		"skills":     constants.WeightSkills,
		"experience": constants.WeightExperience,
		"education":  constants.WeightEducation,
		"keywords":   constants.WeightKeywords,
	}

	if analysis.SectionScores == nil {
		return fmt.Errorf("分析结果缺少 section_scores")
	}

	var overall float64
	for name, weight := range weights {
		section, ok := analysis.SectionScores[name]
		if !ok {
			return fmt.Errorf("分析结果缺少维度 %s", name)
		}
		if section.Score < 0 {
			section.Score = 0
		} else if section.Score > 100 {
			section.Score = 100
		}
		section.Weight = weight
		analysis.SectionScores[name] = section
		overall += section.Score * weight
	}
	analysis.OverallScore = overall

	for i := range analysis.ImprovementSuggestions {
		s := &analysis.ImprovementSuggestions[i]
		switch s.Priority {
		case constants.PriorityHigh, constants.PriorityMedium, constants.PriorityLow:
		default:
			s.Priority = constants.PriorityMedium
		}
		if s.Impact < 1 {
			s.Impact = 1
		} else if s.Impact > 10 {
			s.Impact = 10
		}
	}

	if analysis.KeyStrengths == nil {
		analysis.KeyStrengths = []string{}
	}
	if analysis.KeyGaps == nil {
		analysis.KeyGaps = []string{}
	}
	return nil
}
