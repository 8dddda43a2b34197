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

// ResumeHandler 简历相关接口
type ResumeHandler struct {
	pipeline *processor.Pipeline
}

// NewResumeHandler 创建简历接口处理器
func NewResumeHandler(pipeline *processor.Pipeline) *ResumeHandler {
	return &ResumeHandler{pipeline: pipeline}
}

// Upload 处理 multipart 文件上传
func (h *ResumeHandler) Upload(c context.Context, ctx *app.RequestContext) {
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

	record, err := h.pipeline.IngestResumeFile(c, data, fileHeader.Filename)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

type textSubmission struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// UploadText 处理纯文本提交
func (h *ResumeHandler) UploadText(c context.Context, ctx *app.RequestContext) {
	var req textSubmission
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}
	record, err := h.pipeline.IngestResumeText(c, req.Text, req.Label)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

type urlSubmission struct {
	URL string `json:"url"`
}

// UploadURL 处理 URL 提交
func (h *ResumeHandler) UploadURL(c context.Context, ctx *app.RequestContext) {
	var req urlSubmission
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法 JSON"})
		return
	}
	record, err := h.pipeline.IngestResumeURL(c, req.URL)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// Get 按 ID 查询简历
func (h *ResumeHandler) Get(c context.Context, ctx *app.RequestContext) {
	record, err := h.pipeline.GetResume(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// List 列举全部简历
func (h *ResumeHandler) List(c context.Context, ctx *app.RequestContext) {
	records, err := h.pipeline.ListResumes(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"resumes": records, "count": len(records)})
}
