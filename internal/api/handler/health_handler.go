package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// DependencyChecker 汇报各后端依赖的连通状态，键为依赖名，值为 "ok"、"disabled" 或错误描述
type DependencyChecker interface {
	Health(ctx context.Context) map[string]string
}

// HealthHandler 健康检查接口
type HealthHandler struct {
	checker DependencyChecker
}

// NewHealthHandler 创建健康检查处理器，checker 可为 nil
func NewHealthHandler(checker DependencyChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check 探测依赖连通性。任一依赖异常时整体状态报 degraded，HTTP 状态码保持 200，
// 由负载均衡或告警侧自行决断。
func (h *HealthHandler) Check(c context.Context, ctx *app.RequestContext) {
	if h.checker == nil {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
		return
	}

	pingCtx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	checks := h.checker.Health(pingCtx)
	status := "ok"
	for _, state := range checks {
		if state != "ok" && state != "disabled" {
			status = "degraded"
			break
		}
	}
	ctx.JSON(consts.StatusOK, utils.H{"status": status, "dependencies": checks})
}
