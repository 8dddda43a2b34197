package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/types"
)

// ErrInsufficientCandidates 对比至少需要两个候选人
var ErrInsufficientCandidates = fmt.Errorf("候选人对比至少需要 2 份匹配结果")

// CompareCandidates 汇总多份匹配结果，产出五个维度的排名与百分位。
// names 为 resume_id -> 候选人姓名，可为 nil。
// 纯计算，不触发任何 LLM 调用。
func CompareCandidates(jobID string, results []*types.MatchResult, names map[string]string) (*types.ComparisonReport, error) {
	if len(results) < 2 {
		return nil, ErrInsufficientCandidates
	}

	candidates := make([]types.CandidateScore, 0, len(results))
	for _, r := range results {
		if r == nil || r.Analysis == nil {
			return nil, fmt.Errorf("匹配结果缺少分析数据，无法对比")
		}
		c := types.CandidateScore{
			ResumeID:        r.ResumeID,
			OverallScore:    r.Analysis.OverallScore,
			SkillScore:      meanSkillScore(r.Analysis.SkillMatches),
			ExperienceScore: meanSectionScore(r.Analysis.ExperienceMatches),
			EducationScore:  meanSectionScore(r.Analysis.EducationMatches),
			GapCount:        len(r.Analysis.KeyGaps),
			Ranks:           map[string]int{},
			Percentiles:     map[string]int{},
		}
		for _, s := range r.Analysis.ImprovementSuggestions {
			if s.Priority == constants.PriorityHigh {
				c.HighPriorityCount++
			}
		}
		if names != nil {
			c.CandidateName = names[r.ResumeID]
		}
		candidates = append(candidates, c)
	}

	n := len(candidates)
	rankings := map[string][]string{}

	rank := func(dimension string, less func(a, b *types.CandidateScore) bool) {
		order := make([]*types.CandidateScore, n)
		for i := range candidates {
			order[i] = &candidates[i]
		}
		sort.SliceStable(order, func(i, j int) bool { return less(order[i], order[j]) })

		ids := make([]string, n)
		for i, c := range order {
			ids[i] = c.ResumeID
			c.Ranks[dimension] = i + 1
			// 百分位: round((N-rank+1)/N*100)，第一名为 100
			c.Percentiles[dimension] = int(math.Round(float64(n-i) / float64(n) * 100))
		}
		rankings[dimension] = ids
	}

	rank(constants.RankingOverall, func(a, b *types.CandidateScore) bool {
		return a.OverallScore > b.OverallScore
	})
	rank(constants.RankingSkills, func(a, b *types.CandidateScore) bool {
		return a.SkillScore > b.SkillScore
	})
	rank(constants.RankingExperience, func(a, b *types.CandidateScore) bool {
		return a.ExperienceScore > b.ExperienceScore
	})
	rank(constants.RankingEducation, func(a, b *types.CandidateScore) bool {
		return a.EducationScore > b.EducationScore
	})
	// fewest_gaps 按高优先级改进项升序：需要补的硬伤越少名次越靠前，
	// 数量相同时差距总数少者优先
	rank(constants.RankingFewestGaps, func(a, b *types.CandidateScore) bool {
		if a.HighPriorityCount != b.HighPriorityCount {
			return a.HighPriorityCount < b.HighPriorityCount
		}
		if a.GapCount != b.GapCount {
			return a.GapCount < b.GapCount
		}
		return a.OverallScore > b.OverallScore
	})

	return &types.ComparisonReport{
		JobID:          jobID,
		CandidateCount: n,
		Rankings:       rankings,
		Candidates:     candidates,
		ComparedAt:     time.Now(),
	}, nil
}

func meanSkillScore(matches []types.SkillMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	var sum float64
	for _, m := range matches {
		sum += m.Score
	}
	return sum / float64(len(matches))
}

func meanSectionScore(matches []types.SectionMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	var sum float64
	for _, m := range matches {
		sum += m.Score
	}
	return sum / float64(len(matches))
}
