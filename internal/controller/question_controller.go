package controller

import (
	"workshop_form_backend/internal/model"
	"workshop_form_backend/internal/service"
	"workshop_form_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	service *service.QuestionService
}

func NewQuestionController(s *service.QuestionService) *QuestionController {
	return &QuestionController{service: s}
}

type SubmitQuestionRequest struct {
	Name     string `json:"name" binding:"required"`
	Question string `json:"question" binding:"required"`
}

type QuestionResponse struct {
	Entry   *model.QuestionEntry `json:"entry,omitempty"`
	Notices []model.Notice       `json:"notices"`
}

// SubmitQuestion godoc
// @Summary 提交问题
// @Description 以东京时间时间戳追加到问题表
// @Tags 问题
// @Accept json
// @Produce json
// @Param body body SubmitQuestionRequest true "问题"
// @Success 201 {object} util.Response{data=QuestionResponse}
// @Failure 400 {object} util.Response
// @Failure 502 {object} util.Response{data=QuestionResponse}
// @Router /questions [post]
func (c *QuestionController) SubmitQuestion(ctx *gin.Context) {
	var req SubmitQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entry, notices, err := c.service.SubmitQuestion(ctx.Request.Context(), req.Name, req.Question)
	resp := QuestionResponse{Entry: entry, Notices: notices}
	if err != nil {
		code := failureStatus(err)
		util.ErrorWithData(ctx, code, err.Error(), resp)
		return
	}
	util.Created(ctx, resp)
}
