package controller

import (
	"net/http"

	"workshop_form_backend/internal/config"
	"workshop_form_backend/internal/model"
	"workshop_form_backend/internal/service"
	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PageController 服务端渲染的两个表单和覆盖确认面板
type PageController struct {
	answers   *service.AnswerService
	questions *service.QuestionService
	catalog   *service.QuestionCatalog
	token     config.TokenConfig
}

func NewPageController(answers *service.AnswerService, questions *service.QuestionService, catalog *service.QuestionCatalog, token config.TokenConfig) *PageController {
	return &PageController{answers: answers, questions: questions, catalog: catalog, token: token}
}

type pageData struct {
	Labels        []string
	Notices       []model.Notice
	Pending       *model.PendingOverwrite
	Token         string
	Username      string
	SelectedLabel string
	Answer        string
	Name          string
	Question      string
}

type answerForm struct {
	Username      string `form:"username"`
	QuestionLabel string `form:"questionLabel"`
	Answer        string `form:"answer"`
}

type confirmForm struct {
	Token   string `form:"token"`
	Confirm string `form:"confirm"`
}

type questionForm struct {
	Name     string `form:"name"`
	Question string `form:"question"`
}

func (c *PageController) newPage() *pageData {
	return &pageData{Labels: c.catalog.Labels()}
}

func (c *PageController) render(ctx *gin.Context, status int, page *pageData) {
	ctx.HTML(status, "index.html", page)
}

// renderBindError 表单无法解析时仍返回页面，而不是 JSON
func (c *PageController) renderBindError(ctx *gin.Context, err error) {
	logger.Log.Warn("Failed to bind form", zap.String("path", ctx.Request.URL.Path), zap.Error(err))
	page := c.newPage()
	page.Notices = []model.Notice{{Level: model.NoticeError, Message: util.MsgInvalidForm}}
	c.render(ctx, http.StatusBadRequest, page)
}

func (c *PageController) Index(ctx *gin.Context) {
	c.render(ctx, http.StatusOK, c.newPage())
}

func (c *PageController) PostAnswer(ctx *gin.Context) {
	var form answerForm
	if err := ctx.ShouldBind(&form); err != nil {
		c.renderBindError(ctx, err)
		return
	}

	page := c.newPage()
	page.Username = form.Username
	page.SelectedLabel = form.QuestionLabel
	page.Answer = form.Answer

	outcome := c.answers.SubmitAnswer(ctx.Request.Context(), model.AnswerSubmission{
		Username:      form.Username,
		QuestionLabel: form.QuestionLabel,
		Answer:        form.Answer,
	})
	page.Notices = outcome.Notices
	c.attachPending(page, outcome)
	c.render(ctx, http.StatusOK, page)
}

func (c *PageController) PostConfirm(ctx *gin.Context) {
	var form confirmForm
	if err := ctx.ShouldBind(&form); err != nil {
		c.renderBindError(ctx, err)
		return
	}

	page := c.newPage()
	pending, err := util.ParseOverwriteToken(form.Token, c.token.Secret)
	if err != nil {
		page.Notices = []model.Notice{{Level: model.NoticeError, Message: util.MsgTokenInvalid}}
		c.render(ctx, http.StatusOK, page)
		return
	}

	outcome := c.answers.ResolveOverwrite(ctx.Request.Context(), *pending, form.Confirm == "yes")
	page.Notices = outcome.Notices
	c.attachPending(page, outcome)
	c.render(ctx, http.StatusOK, page)
}

func (c *PageController) PostQuestion(ctx *gin.Context) {
	var form questionForm
	if err := ctx.ShouldBind(&form); err != nil {
		c.renderBindError(ctx, err)
		return
	}

	page := c.newPage()
	_, notices, err := c.questions.SubmitQuestion(ctx.Request.Context(), form.Name, form.Question)
	page.Notices = notices
	if err != nil {
		// 失败时保留输入内容
		page.Name = form.Name
		page.Question = form.Question
	}
	c.render(ctx, http.StatusOK, page)
}

func (c *PageController) attachPending(page *pageData, outcome model.WriteOutcome) {
	if outcome.Kind != model.OutcomeNeedsConfirmation {
		return
	}
	token, err := util.GenerateOverwriteToken(*outcome.Pending, c.token.Secret, c.token.ExpireTime)
	if err != nil {
		logger.Log.Error("Failed to sign overwrite token", zap.Error(err))
		page.Notices = append(page.Notices, model.Notice{Level: model.NoticeError, Message: util.MsgAnswerFailed + err.Error()})
		return
	}
	page.Pending = outcome.Pending
	page.Token = token
}
