package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/extractor"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

const sampleAnalysisJSON = `{
  "overall_score": 42,
  "summary": "Solid backend candidate with some gaps.",
  "key_strengths": ["Go expertise"],
  "key_gaps": ["No Kubernetes experience"],
  "section_scores": {
    "skills": {"score": 80, "weight": 0.25, "details": "Most core skills present"},
    "experience": {"score": 60, "weight": 0.25},
    "education": {"score": 40, "weight": 0.25},
    "keywords": {"score": 20, "weight": 0.25}
  },
  "skill_matches": [{"skill": "Go", "present": true, "required": true, "score": 95}],
  "experience_matches": [{"requirement": "5+ years backend", "matched": true, "score": 85}],
  "education_matches": [{"requirement": "CS degree", "matched": true, "score": 90}],
  "keyword_matches": [{"keyword": "microservices", "present": true, "frequency": 3}],
  "improvement_suggestions": [
    {"suggestion": "Add Kubernetes projects", "priority": "High", "impact": 8},
    {"suggestion": "Quantify achievements", "priority": "urgent", "impact": 0}
  ],
  "ats_optimization_tips": ["Use standard section headers"],
  "interview_preparation": ["Prepare system design examples"],
  "career_path_alignment": "Good long-term fit"
}`

func testResumeData() *types.ResumeData {
	data := types.EmptyResumeData()
	data.ContactInfo.Name = "Li Na"
	data.Skills = []string{"Go", "MySQL"}
	return data
}

func testJobData() *types.JobData {
	return types.DegradedJobData("Backend Engineer", "Build services in Go.")
}

// TestAnalyzeRecomputesOverallScore 总分由维度分按固定权重重算，
// 不信任模型自己报的 overall_score 与权重。
func TestAnalyzeRecomputesOverallScore(t *testing.T) {
	mock := &extractor.MockChatModel{ExpectedResponse: sampleAnalysisJSON}
	analyzer := NewMatchAnalyzer(mock, extractor.WithBackoff(0, 0))

	analysis, err := analyzer.Analyze(context.Background(), testResumeData(), testJobData())
	require.NoError(t, err)

	// 80*0.40 + 60*0.30 + 40*0.15 + 20*0.15 = 59
	assert.InDelta(t, 59.0, analysis.OverallScore, 0.001)
	assert.InDelta(t, constants.WeightSkills, analysis.SectionScores["skills"].Weight, 0.001)
	assert.InDelta(t, constants.WeightExperience, analysis.SectionScores["experience"].Weight, 0.001)
	assert.InDelta(t, constants.WeightEducation, analysis.SectionScores["education"].Weight, 0.001)
	assert.InDelta(t, constants.WeightKeywords, analysis.SectionScores["keywords"].Weight, 0.001)
}

// TestAnalyzeNormalizesSuggestions 非法优先级归为 Medium，impact 裁剪到 1-10
func TestAnalyzeNormalizesSuggestions(t *testing.T) {
	mock := &extractor.MockChatModel{ExpectedResponse: sampleAnalysisJSON}
	analyzer := NewMatchAnalyzer(mock, extractor.WithBackoff(0, 0))

	analysis, err := analyzer.Analyze(context.Background(), testResumeData(), testJobData())
	require.NoError(t, err)
	require.Len(t, analysis.ImprovementSuggestions, 2)

	assert.Equal(t, constants.PriorityHigh, analysis.ImprovementSuggestions[0].Priority)
	assert.Equal(t, 8, analysis.ImprovementSuggestions[0].Impact)
	assert.Equal(t, constants.PriorityMedium, analysis.ImprovementSuggestions[1].Priority)
	assert.Equal(t, 1, analysis.ImprovementSuggestions[1].Impact)
}

// TestAnalyzeClampsSectionScores 越界维度分裁剪到 0-100
func TestAnalyzeClampsSectionScores(t *testing.T) {
	response := `{
	  "section_scores": {
	    "skills": {"score": 150},
	    "experience": {"score": -20},
	    "education": {"score": 50},
	    "keywords": {"score": 50}
	  }
	}`
	mock := &extractor.MockChatModel{ExpectedResponse: response}
	analyzer := NewMatchAnalyzer(mock, extractor.WithBackoff(0, 0))

	analysis, err := analyzer.Analyze(context.Background(), testResumeData(), testJobData())
	require.NoError(t, err)

	assert.InDelta(t, 100.0, analysis.SectionScores["skills"].Score, 0.001)
	assert.InDelta(t, 0.0, analysis.SectionScores["experience"].Score, 0.001)
	// 100*0.40 + 0*0.30 + 50*0.15 + 50*0.15 = 55
	assert.InDelta(t, 55.0, analysis.OverallScore, 0.001)
	// 缺省的集合字段初始化为空切片
	assert.NotNil(t, analysis.KeyStrengths)
	assert.NotNil(t, analysis.KeyGaps)
}

// TestAnalyzeMissingSectionFails 维度缺失是硬错误，不做降级
func TestAnalyzeMissingSectionFails(t *testing.T) {
	response := `{"section_scores": {"skills": {"score": 80}}}`
	mock := &extractor.MockChatModel{ExpectedResponse: response}
	analyzer := NewMatchAnalyzer(mock, extractor.WithBackoff(0, 0))

	analysis, err := analyzer.Analyze(context.Background(), testResumeData(), testJobData())
	assert.Nil(t, analysis)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "缺少维度")
}

// TestAnalyzeModelFailureIsHardError 模型持续失败直接报错
func TestAnalyzeModelFailureIsHardError(t *testing.T) {
	cause := errors.New("模拟 LLM 故障")
	mock := &extractor.MockChatModel{ExpectedError: cause}
	analyzer := NewMatchAnalyzer(mock, extractor.WithBackoff(0, 0), extractor.WithMaxAttempts(2))

	analysis, err := analyzer.Analyze(context.Background(), testResumeData(), testJobData())
	assert.Nil(t, analysis)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 2, mock.Calls())
}

// TestAnalyzeRejectsNilInput 缺少任一侧输入直接报错
func TestAnalyzeRejectsNilInput(t *testing.T) {
	analyzer := NewMatchAnalyzer(&extractor.MockChatModel{}, extractor.WithBackoff(0, 0))

	_, err := analyzer.Analyze(context.Background(), nil, testJobData())
	assert.Error(t, err)

	_, err = analyzer.Analyze(context.Background(), testResumeData(), nil)
	assert.Error(t, err)
}

// TestAnalyzePromptCarriesBothSides 提示词包含双方结构化数据
func TestAnalyzePromptCarriesBothSides(t *testing.T) {
	mock := &extractor.MockChatModel{ExpectedResponse: sampleAnalysisJSON}
	analyzer := NewMatchAnalyzer(mock, extractor.WithBackoff(0, 0))

	_, err := analyzer.Analyze(context.Background(), testResumeData(), testJobData())
	require.NoError(t, err)

	require.Len(t, mock.ReceivedMessages, 1)
	userPrompt := mock.ReceivedMessages[0][1].Content
	assert.Contains(t, userPrompt, "Li Na")
	assert.Contains(t, userPrompt, "Backend Engineer")
}
