package handler

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/utkarsh5026/TireNoHire/internal/processor"
)

// MatchHandler 匹配相关接口
type MatchHandler struct {
	pipeline *processor.Pipeline
}

// NewMatchHandler 创建匹配接口处理器
func NewMatchHandler(pipeline *processor.Pipeline) *MatchHandler {
	return &MatchHandler{pipeline: pipeline}
}

type matchRequest struct {
	ResumeID     string `json:"resume_id"`
	JobID        string `json:"job_id"`
	ForceRefresh bool   `json:"force_refresh"`
}

// Create 计算（或复用）一对简历与职位的匹配分析
func (h *MatchHandler) Create(c context.Context, ctx *app.RequestContext) {
	var req matchRequest
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}
	if req.ResumeID == "" || req.JobID == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "resume_id 与 job_id 均不能为空"})
		return
	}

	result, err := h.pipeline.Match(c, req.ResumeID, req.JobID, req.ForceRefresh)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, result)
}

// Get 只读查询既有匹配记录
func (h *MatchHandler) Get(c context.Context, ctx *app.RequestContext) {
	result, err := h.pipeline.GetMatch(c, ctx.Param("resumeId"), ctx.Param("jobId"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, result)
}

type batchMatchRequest struct {
	ResumeIDs []string `json:"resume_ids"`
	JobID     string   `json:"job_id"`
}

// Batch 批量匹配多份简历到同一职位
func (h *MatchHandler) Batch(c context.Context, ctx *app.RequestContext) {
	var req batchMatchRequest
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}

	results, err := h.pipeline.BatchMatch(c, req.ResumeIDs, req.JobID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{
		"job_id":  req.JobID,
		"results": results,
		"count":   len(results),
	})
}

// Compare 多候选人横向对比
func (h *MatchHandler) Compare(c context.Context, ctx *app.RequestContext) {
	var req batchMatchRequest
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}

	report, err := h.pipeline.CompareCandidates(c, req.ResumeIDs, req.JobID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, report)
}
