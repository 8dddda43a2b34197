package extractor

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

const jobSystemPrompt = `You are an expert at parsing job descriptions. You extract structured data from job postings.
Always respond with a single JSON object and nothing else. Do not add explanations.`

const jobUserPromptTemplate = `Extract the following fields from the job description below and return them as JSON:

{
  "title": "",
  "company": "",
  "location": "",
  "type": "",
  "description": "",
  "requirements": [{"description": "", "required": true, "category": "technical", "importance": 5}],
  "responsibilities": [""],
  "preferred_qualifications": [""],
  "benefits": [""],
  "salary_range": "",
  "industry": ""
}

Rules:
- "required" is false for nice-to-have items.
- "category" is one of: technical, soft, experience, education, other.
- "importance" is an integer from 1 (minor) to 10 (critical).
- Use empty strings or empty arrays for missing information, never null.

Job description:
"""
%s
"""`

// jobLoosePromptTemplate 主提示失败后的宽松重试：
// 不再要求完整字段，尽力而为地给出能确定的部分。
const jobLoosePromptTemplate = `The job posting below may be unstructured or noisy.
Produce a JSON object with whatever you can determine. Use this shape and leave unknown fields empty:

{"title": "", "company": "", "location": "", "type": "", "description": "", "requirements": [], "responsibilities": [], "preferred_qualifications": [], "benefits": [], "salary_range": "", "industry": ""}

At minimum try to fill "title" and "description". Respond with JSON only.

Job posting:
"""
%s
"""`

// JobExtractor 职位描述结构化提取器。
// 降级链路：主提示（带重试）-> 宽松提示 -> 固定兜底结构。
// 与简历提取一样，终态失败不报错，只有上下文取消会上抛。
type JobExtractor struct {
	base *Client
}

// NewJobExtractor 创建职位提取器
func NewJobExtractor(m model.BaseChatModel, opts ...Option) *JobExtractor {
	return &JobExtractor{
		base: NewClient(m, "job_extractor", opts...),
	}
}

// Extract 从职位文本提取结构化数据
func (e *JobExtractor) Extract(ctx context.Context, jobText string) (*types.JobData, error) {
	data, err := e.tryExtract(ctx, fmt.Sprintf(jobUserPromptTemplate, jobText))
	if err == nil {
		normalizeJobData(data, jobText)
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	e.base.log.Warn().Err(err).Msg("职位主提取失败，进入宽松重试")
	data, err = e.tryExtract(ctx, fmt.Sprintf(jobLoosePromptTemplate, jobText))
	if err == nil {
		normalizeJobData(data, jobText)
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	e.base.log.Warn().Err(err).Msg("职位宽松提取仍失败，返回兜底结构")
	return types.DegradedJobData("", jobText), nil
}

func (e *JobExtractor) tryExtract(ctx context.Context, userPrompt string) (*types.JobData, error) {
	var data types.JobData
	if err := e.base.GenerateJSON(ctx, jobSystemPrompt, userPrompt, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// normalizeJobData 补齐缺失字段：空标题用固定占位，空描述回填原文，
// importance 裁剪到 1-10，集合字段保证非 nil。
func normalizeJobData(data *types.JobData, jobText string) {
	if data.Title == "" {
		data.Title = constants.JobTitleFallback
	}
	if data.Description == "" {
		data.Description = jobText
	}
	if data.Requirements == nil {
		data.Requirements = []types.JobRequirement{}
	}
	for i := range data.Requirements {
		if data.Requirements[i].Importance < 1 {
			data.Requirements[i].Importance = 1
		} else if data.Requirements[i].Importance > 10 {
			data.Requirements[i].Importance = 10
		}
	}
	if data.Responsibilities == nil {
		data.Responsibilities = []string{}
	}
	if data.PreferredQualifications == nil {
		data.PreferredQualifications = []string{}
	}
	if data.Benefits == nil {
		data.Benefits = []string{}
	}
}
