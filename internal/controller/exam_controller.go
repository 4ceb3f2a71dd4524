package controller

import (
	"strconv"

	"lingua_exam_backend/internal/service"
	"lingua_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	Catalog  *service.CatalogService
	Attempts *service.ExamAttemptService
}

func NewExamController(catalog *service.CatalogService, attempts *service.ExamAttemptService) *ExamController {
	return &ExamController{Catalog: catalog, Attempts: attempts}
}

// pageParams reads page and limit query values with defaults.
func pageParams(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", strconv.Itoa(util.DefaultPage)))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(util.DefaultLimit)))
	if page < 1 {
		page = util.DefaultPage
	}
	if limit < 1 || limit > util.MaxLimit {
		limit = util.DefaultLimit
	}
	return page, limit
}

// @Summary List published exams
// @Tags Exams
// @Produce json
// @Param examType query string false "IELTS or GENERAL"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	page, limit := pageParams(ctx)
	exams, total, err := c.Catalog.ListExams(ctx.Request.Context(), ctx.Query("examType"), page, limit)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: exams, Total: total, Page: page, Limit: limit})
}

// @Summary Exam detail
// @Tags Exams
// @Produce json
// @Param examId path int true "exam id"
// @Success 200 {object} util.Response
// @Router /api/exams/{examId} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	examID, err := util.ParseUintParam("examId", ctx.Param("examId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	exam, err := c.Catalog.GetExamDetail(ctx.Request.Context(), examID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, exam)
}

// @Summary Section with its questions, answer keys removed
// @Tags Exams
// @Produce json
// @Param examId path int true "exam id"
// @Param sectionId path int true "section id"
// @Success 200 {object} util.Response
// @Router /api/exams/{examId}/sections/{sectionId} [get]
func (c *ExamController) GetSection(ctx *gin.Context) {
	examID, err := util.ParseUintParam("examId", ctx.Param("examId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	sectionID, err := util.ParseUintParam("sectionId", ctx.Param("sectionId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	section, err := c.Catalog.GetSectionDetail(ctx.Request.Context(), examID, sectionID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, section)
}

// @Summary Start or resume an attempt
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param examId path int true "exam id"
// @Param body body service.StartAttemptRequest false "mode, sectionId, resumeLast"
// @Success 201 {object} util.Response
// @Router /api/exams/{examId}/start [post]
func (c *ExamController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	examID, err := util.ParseUintParam("examId", ctx.Param("examId"))
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	var req service.StartAttemptRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	attempt, resumed, err := c.Attempts.StartAttempt(ctx.Request.Context(), user.UserID, examID, req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	body := gin.H{"attempt": attempt, "resumed": resumed}
	if resumed {
		util.Success(ctx, body)
		return
	}
	util.Created(ctx, body)
}
