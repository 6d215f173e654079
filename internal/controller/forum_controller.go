package controller

import (
	"errors"
	"strconv"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/service"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"

	"github.com/gin-gonic/gin"
)

type ForumController struct {
	ForumService   *service.ForumService
	StorageService *service.StorageService
}

func NewForumController(forumService *service.ForumService, storageService *service.StorageService) *ForumController {
	return &ForumController{ForumService: forumService, StorageService: storageService}
}

// ListThreads godoc
// @Summary List forum threads
// @Tags forum
// @Produce json
// @Param category query string false "filter by category"
// @Param page query int false "page number"
// @Param page_size query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/threads [get]
func (c *ForumController) ListThreads(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))

	threads, total, err := c.ForumService.ListThreads(ctx.Query("category"), page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  threads,
		Total: total,
		Page:  page,
		Limit: pageSize,
	})
}

// ThreadDetail godoc
// @Summary Get a thread with its comments
// @Tags forum
// @Produce json
// @Param id path string true "thread id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/threads/{id} [get]
func (c *ForumController) ThreadDetail(ctx *gin.Context) {
	userID := ""
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	detail, err := c.ForumService.ThreadByID(ctx.Param("id"), userID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, detail)
}

// CreateThread godoc
// @Summary Start a new thread
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateThreadRequest true "thread payload"
// @Success 201 {object} util.Response
// @Router /api/threads [post]
func (c *ForumController) CreateThread(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CreateThreadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	thread, err := c.ForumService.CreateThread(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, thread)
}

// DeleteThread godoc
// @Summary Delete a thread (author or admin)
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "thread id"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/threads/{id} [delete]
func (c *ForumController) DeleteThread(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	err := c.ForumService.DeleteThread(ctx.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Forbidden(ctx)
		} else {
			util.NotFound(ctx)
		}
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// CreateComment godoc
// @Summary Comment on a thread
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "thread id"
// @Param body body service.CreateCommentRequest true "comment payload"
// @Success 201 {object} util.Response
// @Router /api/threads/{id}/comments [post]
func (c *ForumController) CreateComment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CreateCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	comment, err := c.ForumService.CreateComment(ctx.Request.Context(), ctx.Param("id"), claims.UserID, req)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Created(ctx, comment)
}

// DeleteComment godoc
// @Summary Delete a comment (author or admin)
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "comment id"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/comments/{id} [delete]
func (c *ForumController) DeleteComment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	err := c.ForumService.DeleteComment(ctx.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Forbidden(ctx)
		} else {
			util.NotFound(ctx)
		}
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// ToggleLike godoc
// @Summary Like or unlike a thread
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path string true "thread id"
// @Success 200 {object} util.Response
// @Router /api/threads/{id}/like [post]
func (c *ForumController) ToggleLike(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	liked, err := c.ForumService.ToggleLike(ctx.Param("id"), claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"liked": liked})
}

// UploadImage godoc
// @Summary Upload an image for a thread
// @Tags forum
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "image file"
// @Success 200 {object} util.Response
// @Router /api/threads/upload [post]
func (c *ForumController) UploadImage(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	url, err := c.StorageService.Upload(ctx.Request.Context(), "threads", header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
