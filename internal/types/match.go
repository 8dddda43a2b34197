package types

import "time"

// SectionScore 匹配分析单维度得分
type SectionScore struct {
	// Score 0-100
	Score float64 `json:"score"`
	// Weight 该维度在总分中的权重
	Weight  float64 `json:"weight"`
	Details string  `json:"details,omitempty"`
}

// SkillMatch 技能匹配明细
type SkillMatch struct {
	Skill string `json:"skill"`
	// Present 简历中是否体现
	Present bool `json:"present"`
	// Required 职位是否硬性要求
	Required bool    `json:"required"`
	Score    float64 `json:"score"`
	Comment  string  `json:"comment,omitempty"`
}

// SectionMatch 经历/教育等维度的匹配明细条目
type SectionMatch struct {
	Requirement string  `json:"requirement"`
	Matched     bool    `json:"matched"`
	Score       float64 `json:"score"`
	Evidence    string  `json:"evidence,omitempty"`
}

// KeywordMatch ATS 关键词覆盖明细
type KeywordMatch struct {
	Keyword   string `json:"keyword"`
	Present   bool   `json:"present"`
	Frequency int    `json:"frequency,omitempty"`
}

// ImprovementSuggestion 改进建议
type ImprovementSuggestion struct {
	Suggestion string `json:"suggestion"`
	// Priority High / Medium / Low
	Priority string `json:"priority"`
	// Impact 预期影响 1-10
	Impact int `json:"impact"`
}

// MatchAnalysis 简历-职位匹配分析完整结果
type MatchAnalysis struct {
	// OverallScore 0-100，由各维度按权重合成
	OverallScore float64  `json:"overall_score"`
	Summary      string   `json:"summary"`
	KeyStrengths []string `json:"key_strengths"`
	KeyGaps      []string `json:"key_gaps"`
	// SectionScores 维度 -> 得分，键为 skills/experience/education/keywords
	SectionScores          map[string]SectionScore `json:"section_scores"`
	SkillMatches           []SkillMatch            `json:"skill_matches"`
	ExperienceMatches      []SectionMatch          `json:"experience_matches"`
	EducationMatches       []SectionMatch          `json:"education_matches"`
	KeywordMatches         []KeywordMatch          `json:"keyword_matches"`
	ImprovementSuggestions []ImprovementSuggestion `json:"improvement_suggestions"`
	ATSOptimizationTips    []string                `json:"ats_optimization_tips"`
	InterviewPreparation   []string                `json:"interview_preparation"`
	CareerPathAlignment    string                  `json:"career_path_alignment,omitempty"`
}

// MatchResult 一次匹配的落库/返回单元
type MatchResult struct {
	MatchID    string         `json:"match_id"`
	ResumeID   string         `json:"resume_id"`
	JobID      string         `json:"job_id"`
	Analysis   *MatchAnalysis `json:"analysis"`
	AnalyzedAt time.Time      `json:"analyzed_at"`
	// FromCache 标记是否命中既有记录而非重新分析
	FromCache bool `json:"from_cache"`
}

// CandidateScore 多候选人对比中的单人汇总
type CandidateScore struct {
	ResumeID      string  `json:"resume_id"`
	CandidateName string  `json:"candidate_name,omitempty"`
	OverallScore  float64 `json:"overall_score"`
	// SkillScore / ExperienceScore / EducationScore 为对应匹配明细的平均分
	SkillScore      float64 `json:"skill_score"`
	ExperienceScore float64 `json:"experience_score"`
	EducationScore  float64 `json:"education_score"`
	// GapCount 关键差距数量，HighPriorityCount 高优先级改进项数量
	GapCount          int `json:"gap_count"`
	HighPriorityCount int `json:"high_priority_count"`
	// Ranks 维度 -> 名次（1 为最佳）；Percentiles 维度 -> 百分位
	Ranks       map[string]int `json:"ranks"`
	Percentiles map[string]int `json:"percentiles"`
}

// ComparisonReport 多候选人横向对比报告
type ComparisonReport struct {
	JobID          string `json:"job_id"`
	CandidateCount int    `json:"candidate_count"`
	// Rankings 维度 -> 按名次排列的 resume_id 列表
	Rankings   map[string][]string `json:"rankings"`
	Candidates []CandidateScore    `json:"candidates"`
	ComparedAt time.Time           `json:"compared_at"`
}
