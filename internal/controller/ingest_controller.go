package controller

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/faizerlangga999/ProjectCastleBeta/internal/markup"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/service"
	"github.com/faizerlangga999/ProjectCastleBeta/internal/util"
	"github.com/faizerlangga999/ProjectCastleBeta/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// 20 MB upload cap; scanned question papers stay well under it.
const maxUploadBytes = 20 << 20

type IngestController struct {
	IngestService *service.IngestService
}

func NewIngestController(ingestService *service.IngestService) *IngestController {
	return &IngestController{IngestService: ingestService}
}

// UploadCSV godoc
// @Summary Extract question drafts from a CSV export
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "csv file"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/admin/ingest/csv [post]
func (c *IngestController) UploadCSV(ctx *gin.Context) {
	file, _, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	drafts, err := c.IngestService.IngestCSV(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		monitoring.IngestCounter.WithLabelValues("csv", "error").Inc()
		if errors.Is(err, util.ErrEmptyInput) {
			util.BadRequest(ctx, "file contains no questions")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.IngestCounter.WithLabelValues("csv", "ok").Inc()
	util.Success(ctx, gin.H{"drafts": drafts})
}

// UploadDocument godoc
// @Summary Extract question drafts from a PDF or image
// @Description PDFs with a usable text layer are read locally; scans and photos go to the extraction model.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "pdf or image file"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/ingest/document [post]
func (c *IngestController) UploadDocument(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		util.BadRequest(ctx, "file too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeFromExtension(header.Filename)
	}
	if !supportedDocumentType(mimeType) {
		util.BadRequest(ctx, "unsupported file type: "+mimeType)
		return
	}

	source := "image"
	if mimeType == "application/pdf" {
		source = "pdf"
	}

	drafts, err := c.IngestService.IngestDocument(ctx.Request.Context(), mimeType, data)
	if err != nil {
		monitoring.IngestCounter.WithLabelValues(source, "error").Inc()
		var malformed *util.MalformedResponseError
		switch {
		case errors.Is(err, util.ErrEmptyInput):
			util.BadRequest(ctx, "file is empty")
		case errors.As(err, &malformed):
			util.Error(ctx, http.StatusUnprocessableEntity, malformed.Error())
		case errors.Is(err, util.ErrBadRequest):
			util.BadRequest(ctx, "extraction request rejected")
		case errors.Is(err, util.ErrRateLimited) || errors.Is(err, util.ErrServerError):
			util.Error(ctx, http.StatusBadGateway, "extraction service unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.IngestCounter.WithLabelValues(source, "ok").Inc()
	util.Success(ctx, gin.H{"drafts": drafts})
}

// SaveDrafts godoc
// @Summary Persist reviewed drafts as quiz questions
// @Description Validates every draft; one failure aborts the whole save with per-field messages.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.SaveDraftsRequest true "target quiz and drafts"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/admin/ingest/save [post]
func (c *IngestController) SaveDrafts(ctx *gin.Context) {
	var req service.SaveDraftsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, saved, err := c.IngestService.SaveDrafts(req)
	if err != nil {
		var verr *util.ValidationError
		switch {
		case errors.As(err, &verr):
			util.Error(ctx, http.StatusUnprocessableEntity, verr.Error())
		case errors.Is(err, util.ErrEmptyInput):
			util.BadRequest(ctx, "no drafts to save")
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"quiz": quiz, "saved": saved})
}

type tokenizeRequest struct {
	Text string `json:"text" binding:"required"`
}

// Tokenize godoc
// @Summary Tokenize question markup into renderable segments
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body tokenizeRequest true "markup text"
// @Success 200 {object} util.Response
// @Router /api/admin/markup/tokenize [post]
func (c *IngestController) Tokenize(ctx *gin.Context) {
	var req tokenizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{
		"segments": markup.Tokenize(req.Text),
		"balanced": markup.Balanced(req.Text),
	})
}

func supportedDocumentType(mimeType string) bool {
	switch mimeType {
	case "application/pdf", "image/png", "image/jpeg", "image/webp":
		return true
	}
	return false
}

func mimeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return "application/octet-stream"
}
