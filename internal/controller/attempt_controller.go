package controller

import (
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/repository"
	"lingua_exam_backend/internal/service"
	"lingua_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	Attempts  *service.ExamAttemptService
	Ledger    *service.AnswerLedgerService
	Questions *service.QuestionService
}

func NewAttemptController(attempts *service.ExamAttemptService, ledger *service.AnswerLedgerService, questions *service.QuestionService) *AttemptController {
	return &AttemptController{Attempts: attempts, Ledger: ledger, Questions: questions}
}

type AnswersRequest struct {
	Answers []service.AnswerInput `json:"answers" binding:"dive"`
}

// attemptParams reads :attemptId and, when present, :sectionId.
func attemptParams(ctx *gin.Context) (attemptID, sectionID uint, err error) {
	attemptID, err = util.ParseUintParam("attemptId", ctx.Param("attemptId"))
	if err != nil {
		return 0, 0, err
	}
	if s := ctx.Param("sectionId"); s != "" {
		sectionID, err = util.ParseUintParam("sectionId", s)
	}
	return attemptID, sectionID, err
}

func bindAnswers(ctx *gin.Context) ([]service.AnswerInput, bool) {
	var req AnswersRequest
	if ctx.Request.ContentLength == 0 {
		return nil, true
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return nil, false
	}
	return req.Answers, true
}

// @Summary Start a section of an attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "attempt id"
// @Param sectionId path int true "section id"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId}/sections/{sectionId}/start [post]
func (c *AttemptController) StartSection(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, sectionID, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	sa, err := c.Attempts.StartSectionAttempt(ctx.Request.Context(), user.UserID, attemptID, sectionID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, sa)
}

// @Summary Save answers of a section in progress
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AnswersRequest true "answers"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId}/sections/{sectionId}/answers [put]
func (c *AttemptController) RecordAnswers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, sectionID, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	answers, ok := bindAnswers(ctx)
	if !ok {
		return
	}
	progress, err := c.Attempts.RecordAnswers(ctx.Request.Context(), user.UserID, attemptID, sectionID, answers)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary Submit a section
// @Tags Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AnswersRequest false "final answers"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId}/sections/{sectionId}/submit [post]
func (c *AttemptController) SubmitSection(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, sectionID, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	answers, ok := bindAnswers(ctx)
	if !ok {
		return
	}
	sa, err := c.Attempts.SubmitSectionAttempt(ctx.Request.Context(), user.UserID, attemptID, sectionID, answers)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, sa)
}

// @Summary Next question of a section
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId}/sections/{sectionId}/next [get]
func (c *AttemptController) NextQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, sectionID, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	next, err := c.Questions.GetNextQuestion(ctx.Request.Context(), user.UserID, attemptID, sectionID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, next)
}

// @Summary Finalize an attempt
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId}/submit [post]
func (c *AttemptController) SubmitExam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, _, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	attempt, err := c.Attempts.SubmitExamAttempt(ctx.Request.Context(), user.UserID, attemptID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// attemptFilter reads the list filters shared by the candidate and admin
// listings.
func attemptFilter(ctx *gin.Context) (repository.AttemptFilter, error) {
	page, limit := pageParams(ctx)
	f := repository.AttemptFilter{
		Status: model.AttemptStatus(ctx.Query("status")),
		Mode:   ctx.Query("mode"),
		Page:   page,
		Limit:  limit,
	}
	if s := ctx.Query("examId"); s != "" {
		id, err := util.ParseUintParam("examId", s)
		if err != nil {
			return f, err
		}
		f.ExamID = id
	}
	from, err := util.ParseDate(ctx.Query("from"))
	if err != nil {
		return f, err
	}
	to, err := util.ParseDate(ctx.Query("to"))
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}

// @Summary My attempts
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param status query string false "attempt status"
// @Param examId query int false "exam id"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts [get]
func (c *AttemptController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	f, err := attemptFilter(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	items, total, err := c.Attempts.ListAttempts(ctx.Request.Context(), user.UserID, f)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: items, Total: total, Page: f.Page, Limit: f.Limit})
}

// @Summary Attempt detail with answers
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, _, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	detail, err := c.Attempts.GetAttemptDetail(ctx.Request.Context(), user.UserID, attemptID, user.Role == model.Admin)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary Answered and correct counts per section
// @Tags Attempts
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/exam-attempts/{attemptId}/progress [get]
func (c *AttemptController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, _, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	progress, err := c.Ledger.GetProgress(ctx.Request.Context(), user.UserID, attemptID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
