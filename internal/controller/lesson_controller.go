package controller

import (
	"os"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/service"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService  *service.LessonService
	StorageService *service.StorageService
}

func NewLessonController(lessonService *service.LessonService, storageService *service.StorageService) *LessonController {
	return &LessonController{LessonService: lessonService, StorageService: storageService}
}

// List godoc
// @Summary List video lessons in display order
// @Tags lessons
// @Produce json
// @Param category query string false "filter by category"
// @Success 200 {object} util.Response
// @Router /api/lessons [get]
func (c *LessonController) List(ctx *gin.Context) {
	lessons, err := c.LessonService.List(ctx.Query("category"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// Detail godoc
// @Summary Get a lesson
// @Tags lessons
// @Produce json
// @Param id path string true "lesson id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/lessons/{id} [get]
func (c *LessonController) Detail(ctx *gin.Context) {
	lesson, err := c.LessonService.ByID(ctx.Param("id"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, lesson)
}

// Create godoc
// @Summary Create a lesson, optionally with an uploaded video
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "lesson title"
// @Param category formData string false "category"
// @Param description formData string false "description"
// @Param video formData file false "video file"
// @Success 201 {object} util.Response
// @Router /api/admin/lessons [post]
func (c *LessonController) Create(ctx *gin.Context) {
	req := service.LessonInput{
		Title:       ctx.PostForm("title"),
		Category:    ctx.PostForm("category"),
		Description: ctx.PostForm("description"),
	}
	if req.Title == "" {
		util.BadRequest(ctx, "title is required")
		return
	}

	localPath := ""
	if file, header, err := ctx.Request.FormFile("video"); err == nil {
		defer file.Close()
		videoURL, thumbURL, staged, err := c.StorageService.UploadVideo(ctx.Request.Context(), header.Filename, file, header.Size)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		req.VideoURL = videoURL
		req.ThumbnailURL = thumbURL
		localPath = staged
		defer os.Remove(staged)
	}

	lesson, err := c.LessonService.Create(req, localPath)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// Update godoc
// @Summary Update a lesson
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "lesson id"
// @Param body body service.LessonInput true "lesson fields"
// @Success 200 {object} util.Response
// @Router /api/admin/lessons/{id} [put]
func (c *LessonController) Update(ctx *gin.Context) {
	var req service.LessonInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.LessonService.Update(ctx.Param("id"), req)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, lesson)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "lesson id"
// @Success 200 {object} util.Response
// @Router /api/admin/lessons/{id} [delete]
func (c *LessonController) Delete(ctx *gin.Context) {
	if err := c.LessonService.Delete(ctx.Param("id")); err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

type reorderRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required"`
}

// Reorder godoc
// @Summary Persist a new lesson display order
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body reorderRequest true "lesson ids in display order"
// @Success 200 {object} util.Response
// @Router /api/admin/lessons/reorder [put]
func (c *LessonController) Reorder(ctx *gin.Context) {
	var req reorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.LessonService.Reorder(req.OrderedIDs); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reordered": len(req.OrderedIDs)})
}
