package handler

import (
	"context"
	"encoding/json"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/utkarsh5026/TireNoHire/internal/processor"
)

// JobHandler 职位相关接口
type JobHandler struct {
	pipeline *processor.Pipeline
}

// NewJobHandler 创建职位接口处理器
func NewJobHandler(pipeline *processor.Pipeline) *JobHandler {
	return &JobHandler{pipeline: pipeline}
}

// Upload 处理 multipart 文件上传
func (h *JobHandler) Upload(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return
	}

	record, err := h.pipeline.IngestJobFile(c, data, fileHeader.Filename)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// UploadText 处理结构化职位文本提交
func (h *JobHandler) UploadText(c context.Context, ctx *app.RequestContext) {
	var req processor.JobTextInput
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}
	record, err := h.pipeline.IngestJobText(c, &req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// UploadURL 处理 URL 提交
func (h *JobHandler) UploadURL(c context.Context, ctx *app.RequestContext) {
	var req urlSubmission
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}
	record, err := h.pipeline.IngestJobURL(c, req.URL)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// Get 按 ID 查询职位
func (h *JobHandler) Get(c context.Context, ctx *app.RequestContext) {
	record, err := h.pipeline.GetJob(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// List 列举全部职位
func (h *JobHandler) List(c context.Context, ctx *app.RequestContext) {
	records, err := h.pipeline.ListJobs(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"jobs": records, "count": len(records)})
}
