package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-builder/internal/dto"
	"github.com/noah-isme/timetable-builder/internal/service"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/response"
)

type transferService interface {
	ExportAll(ctx context.Context) (*service.Document, error)
	ImportAll(ctx context.Context, raw []byte) (*dto.ImportResult, error)
	SaveExport(ctx context.Context) (*dto.SavedExport, error)
	OpenExport(token string) (*service.Document, error)
	DeleteExport(token string) error
}

// TransferHandler exposes export and import endpoints.
type TransferHandler struct {
	service   transferService
	revisions revisionSource
	maxBytes  int64
}

// NewTransferHandler constructs a transfer handler. maxBytes bounds import
// uploads; zero disables the limit.
func NewTransferHandler(svc transferService, revisions revisionSource, maxBytes int64) *TransferHandler {
	return &TransferHandler{service: svc, revisions: revisions, maxBytes: maxBytes}
}

// Export godoc
// @Summary Download full backup
// @Tags Transfer
// @Produce json
// @Success 200 {file} file
// @Router /export [get]
func (h *TransferHandler) Export(c *gin.Context) {
	ctx, tracker := readContext(c)
	doc, err := h.service.ExportAll(ctx)
	stampRevision(c, tracker, h.revisions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

// SaveExport godoc
// @Summary Save backup to the exports directory
// @Tags Transfer
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /export/files [post]
func (h *TransferHandler) SaveExport(c *gin.Context) {
	saved, err := h.service.SaveExport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// Download godoc
// @Summary Download a saved backup
// @Tags Transfer
// @Produce json
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /export/files/{token} [get]
func (h *TransferHandler) Download(c *gin.Context) {
	doc, err := h.service.OpenExport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

// DeleteExport godoc
// @Summary Delete a saved backup
// @Tags Transfer
// @Param token path string true "Signed token"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /export/files/{token} [delete]
func (h *TransferHandler) DeleteExport(c *gin.Context) {
	if err := h.service.DeleteExport(c.Param("token")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Import godoc
// @Summary Replace the collection from a backup
// @Description Accepts the document as the raw JSON body or as a multipart "file" field.
// @Tags Transfer
// @Accept json
// @Accept mpfd
// @Produce json
// @Param If-Match header string false "Expected collection revision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import [post]
func (h *TransferHandler) Import(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	raw, err := readImportBody(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read import document"))
		return
	}
	ctx, tracker, err := mutationContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ImportAll(ctx, raw)
	stampRevision(c, tracker, h.revisions)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func readImportBody(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return c.GetRawData()
}
