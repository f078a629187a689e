package controller

import (
	"context"
	"net/http"
	"time"

	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/sheets"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	Handle *sheets.Handle
}

func NewHealthController(handle *sheets.Handle) *HealthController {
	return &HealthController{Handle: handle}
}

// @Summary 健康检查
// @Description 检查工作簿连接状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := c.Handle.Workbook(reqCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Spreadsheet unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"spreadsheet": "up",
		},
	})
}
