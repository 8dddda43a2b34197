package extractor

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/utkarsh5026/TireNoHire/internal/types"
)

const resumeSystemPrompt = `You are an expert resume parser. You extract structured data from resume text.
Always respond with a single JSON object and nothing else. Do not add explanations.`

const resumeUserPromptTemplate = `Extract the following fields from the resume text below and return them as JSON:

{
  "contact_info": {"name": "", "email": "", "phone": "", "location": "", "linkedin": "", "website": ""},
  "summary": "",
  "education": [{"institution": "", "degree": "", "field": "", "start_date": "", "end_date": "", "gpa": ""}],
  "experience": [{"company": "", "position": "", "start_date": "", "end_date": "", "description": "", "highlights": [""]}],
  "skills": [""],
  "certifications": [{"name": "", "issuer": "", "date": ""}],
  "projects": [{"name": "", "description": "", "technologies": [""], "url": ""}],
  "languages": [""]
}

Rules:
- Use empty strings or empty arrays for missing information, never null.
- Dates keep the format found in the text.
- Skills are individual items, not sentences.

Resume text:
"""
%s
"""`

// ResumeExtractor 简历结构化提取器。
// 终态失败时返回空的有效结构而不是错误，保证上游不中断；
// 只有上下文取消会以错误形式上抛。
type ResumeExtractor struct {
	base *Client
}

// NewResumeExtractor 创建简历提取器
func NewResumeExtractor(m model.BaseChatModel, opts ...Option) *ResumeExtractor {
	return &ResumeExtractor{
		base: NewClient(m, "resume_extractor", opts...),
	}
}

// Extract 从简历文本提取结构化数据
func (e *ResumeExtractor) Extract(ctx context.Context, resumeText string) (*types.ResumeData, error) {
	userPrompt := fmt.Sprintf(resumeUserPromptTemplate, resumeText)

	var data types.ResumeData
	if err := e.base.GenerateJSON(ctx, resumeSystemPrompt, userPrompt, &data); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.base.log.Warn().Err(err).Msg("简历提取终态失败，返回空结构兜底")
		return types.EmptyResumeData(), nil
	}

	normalizeResumeData(&data)
	return &data, nil
}

// normalizeResumeData 保证所有集合字段非 nil，序列化出 [] 而不是 null
func normalizeResumeData(data *types.ResumeData) {
	if data.Education == nil {
		data.Education = []types.Education{}
	}
	if data.Experience == nil {
		data.Experience = []types.Experience{}
	}
	if data.Skills == nil {
		data.Skills = []string{}
	}
	if data.Certifications == nil {
		data.Certifications = []types.Certification{}
	}
	if data.Projects == nil {
		data.Projects = []types.Project{}
	}
	if data.Languages == nil {
		data.Languages = []string{}
	}
}
