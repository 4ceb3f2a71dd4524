package controller

import (
	"lingua_exam_backend/internal/service"
	"lingua_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdaptiveController struct {
	Questions *service.QuestionService
}

func NewAdaptiveController(questions *service.QuestionService) *AdaptiveController {
	return &AdaptiveController{Questions: questions}
}

type AdaptiveNextRequest struct {
	AnsweredQuestions []service.AnswerInput `json:"answeredQuestions" binding:"dive"`
}

// @Summary Next adaptive question for a client-held history
// @Tags Adaptive
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sectionId path int true "section id"
// @Param body body AdaptiveNextRequest false "answered questions"
// @Success 200 {object} util.Response
// @Router /api/adaptive/sections/{sectionId}/next [post]
func (c *AdaptiveController) Next(ctx *gin.Context) {
	sectionID, err := util.ParseUintParam("sectionId", ctx.Param("sectionId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	var req AdaptiveNextRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	res, err := c.Questions.NextAdaptiveQuestion(ctx.Request.Context(), sectionID, req.AnsweredQuestions)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary Questions of a section grouped by difficulty
// @Tags Adaptive
// @Produce json
// @Security BearerAuth
// @Param sectionId path int true "section id"
// @Success 200 {object} util.Response
// @Router /api/adaptive/sections/{sectionId}/bank [get]
func (c *AdaptiveController) Bank(ctx *gin.Context) {
	sectionID, err := util.ParseUintParam("sectionId", ctx.Param("sectionId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	bank, err := c.Questions.QuestionBank(ctx.Request.Context(), sectionID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, bank)
}
