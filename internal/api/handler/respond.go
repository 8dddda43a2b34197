// Package handler 实现 HTTP 层：请求解析、流水线调用与错误码映射。
package handler

import (
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/utkarsh5026/TireNoHire/internal/processor"
)

// writeError 按流水线错误分类映射 HTTP 状态码
func writeError(ctx *app.RequestContext, err error) {
	status := consts.StatusInternalServerError
	switch {
	case errors.Is(err, processor.ErrValidation):
		status = consts.StatusBadRequest
	case errors.Is(err, processor.ErrUnsupportedFormat):
		status = consts.StatusUnsupportedMediaType
	case errors.Is(err, processor.ErrNotFound):
		status = consts.StatusNotFound
	case errors.Is(err, processor.ErrNotReady):
		status = consts.StatusConflict
	case errors.Is(err, processor.ErrParse):
		status = consts.StatusUnprocessableEntity
	}
	ctx.JSON(status, utils.H{"error": err.Error()})
}
