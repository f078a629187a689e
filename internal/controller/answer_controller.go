package controller

import (
	"errors"
	"net/http"

	"workshop_form_backend/internal/config"
	"workshop_form_backend/internal/model"
	"workshop_form_backend/internal/service"
	"workshop_form_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnswerController struct {
	service *service.AnswerService
	catalog *service.QuestionCatalog
	token   config.TokenConfig
}

func NewAnswerController(s *service.AnswerService, catalog *service.QuestionCatalog, token config.TokenConfig) *AnswerController {
	return &AnswerController{service: s, catalog: catalog, token: token}
}

type SubmitAnswerRequest struct {
	Username      string `json:"username" binding:"required"`
	QuestionLabel string `json:"questionLabel" binding:"required"`
	Answer        string `json:"answer"`
}

type ConfirmOverwriteRequest struct {
	Token   string `json:"token" binding:"required"`
	Confirm bool   `json:"confirm"`
}

// AnswerResponse 需要确认时附带覆盖令牌
type AnswerResponse struct {
	Outcome model.WriteOutcome `json:"outcome"`
	Token   string             `json:"token,omitempty"`
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Description 按用户名查找或追加行并写入答案；目标单元格已有内容时返回确认令牌
// @Tags 答案
// @Accept json
// @Produce json
// @Param body body SubmitAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=AnswerResponse}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response{data=AnswerResponse}
// @Router /answers [post]
func (c *AnswerController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome := c.service.SubmitAnswer(ctx.Request.Context(), model.AnswerSubmission{
		Username:      req.Username,
		QuestionLabel: req.QuestionLabel,
		Answer:        req.Answer,
	})
	c.respond(ctx, outcome)
}

// ConfirmOverwrite godoc
// @Summary 确认或取消覆盖已有答案
// @Tags 答案
// @Accept json
// @Produce json
// @Param body body ConfirmOverwriteRequest true "确认令牌"
// @Success 200 {object} util.Response{data=AnswerResponse}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response{data=AnswerResponse}
// @Router /answers/confirm [post]
func (c *AnswerController) ConfirmOverwrite(ctx *gin.Context) {
	var req ConfirmOverwriteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pending, err := util.ParseOverwriteToken(req.Token, c.token.Secret)
	if err != nil {
		util.BadRequest(ctx, util.MsgTokenInvalid)
		return
	}

	outcome := c.service.ResolveOverwrite(ctx.Request.Context(), *pending, req.Confirm)
	c.respond(ctx, outcome)
}

// ListLabels godoc
// @Summary 问题标签列表
// @Tags 答案
// @Produce json
// @Success 200 {object} util.Response{data=[]string}
// @Router /questions/labels [get]
func (c *AnswerController) ListLabels(ctx *gin.Context) {
	util.Success(ctx, c.catalog.Labels())
}

func (c *AnswerController) respond(ctx *gin.Context, outcome model.WriteOutcome) {
	resp := AnswerResponse{Outcome: outcome}

	if outcome.Kind == model.OutcomeNeedsConfirmation {
		token, err := util.GenerateOverwriteToken(*outcome.Pending, c.token.Secret, c.token.ExpireTime)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resp.Token = token
	}

	if outcome.Failed() {
		util.ErrorWithData(ctx, failureStatus(outcome.Err), outcome.Reason, resp)
		return
	}
	util.Success(ctx, resp)
}

// failureStatus 输入错误返回 400，远程表格错误返回 502
func failureStatus(err error) int {
	switch {
	case errors.Is(err, util.ErrUsernameRequired),
		errors.Is(err, util.ErrUnknownQuestion),
		errors.Is(err, util.ErrNameRequired),
		errors.Is(err, util.ErrQuestionRequired):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
