package controller

import (
	"strconv"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/service"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	AuthService      *service.AuthService
}

func NewDashboardController(dashboardService *service.DashboardService, authService *service.AuthService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService, AuthService: authService}
}

// Counts godoc
// @Summary Admin dashboard totals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/admin/dashboard [get]
func (c *DashboardController) Counts(ctx *gin.Context) {
	counts, err := c.DashboardService.Counts()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, counts)
}

// Users godoc
// @Summary List registered users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number"
// @Param page_size query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/admin/users [get]
func (c *DashboardController) Users(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	users, total, err := c.AuthService.ListUsers(page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  users,
		Total: total,
		Page:  page,
		Limit: pageSize,
	})
}
