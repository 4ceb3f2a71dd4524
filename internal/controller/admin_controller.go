package controller

import (
	"lingua_exam_backend/internal/service"
	"lingua_exam_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Catalog  *service.CatalogService
	Attempts *service.ExamAttemptService
}

func NewAdminController(catalog *service.CatalogService, attempts *service.ExamAttemptService) *AdminController {
	return &AdminController{Catalog: catalog, Attempts: attempts}
}

type GradeRequest struct {
	Band *float64 `json:"band" binding:"required"`
}

// @Summary Import an exam definition
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ImportExamRequest true "exam with sections and questions"
// @Success 201 {object} util.Response
// @Router /api/admin/exams/import [post]
func (c *AdminController) ImportExam(ctx *gin.Context) {
	var req service.ImportExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	exam, err := c.Catalog.ImportExam(ctx.Request.Context(), req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Created(ctx, exam)
}

// @Summary Attempts of every candidate
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId query int false "candidate id"
// @Param status query string false "attempt status"
// @Success 200 {object} util.Response
// @Router /api/admin/exam-attempts [get]
func (c *AdminController) ListAttempts(ctx *gin.Context) {
	f, err := attemptFilter(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	if s := ctx.Query("userId"); s != "" {
		if f.UserID, err = util.ParseUintParam("userId", s); err != nil {
			util.Fail(ctx, err)
			return
		}
	}
	items, total, err := c.Attempts.ListAttemptsAdmin(ctx.Request.Context(), f)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: items, Total: total, Page: f.Page, Limit: f.Limit})
}

// @Summary Record a rubric band for a submitted section
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GradeRequest true "band in steps of 0.5"
// @Success 200 {object} util.Response
// @Router /api/admin/exam-attempts/{attemptId}/sections/{sectionId}/grade [post]
func (c *AdminController) GradeSection(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	attemptID, sectionID, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	var req GradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sa, err := c.Attempts.GradeRubricSection(ctx.Request.Context(), user.UserID, attemptID, sectionID, *req.Band)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, sa)
}

// @Summary Expire an attempt now
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param attemptId path int true "attempt id"
// @Success 200 {object} util.Response
// @Router /api/admin/exam-attempts/{attemptId}/expire [post]
func (c *AdminController) ExpireAttempt(ctx *gin.Context) {
	attemptID, _, err := attemptParams(ctx)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	attempt, err := c.Attempts.Expire(ctx.Request.Context(), attemptID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}
