package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medilens/internal/app"
	"medilens/internal/extract"
	"medilens/internal/transport/http/response"
	"medilens/internal/upload"
)

type UploadHandler struct {
	uploadService *app.UploadService
	maxFileSize   int64
}

func NewUploadHandler(uploadService *app.UploadService, maxFileSize int64) *UploadHandler {
	if maxFileSize <= 0 {
		maxFileSize = upload.DefaultMaxFileSize
	}
	return &UploadHandler{uploadService: uploadService, maxFileSize: maxFileSize}
}

// Process accepts one multipart file, extracts its text and returns it.
// The file bytes are never stored; only the extracted text goes on.
func (h *UploadHandler) Process(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge,
			"file exceeds the upload limit of "+strconv.FormatInt(h.maxFileSize/(1024*1024), 10)+"MB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read uploaded file failed")
		return
	}
	defer file.Close()

	// LimitReader guards against a lying Content-Length.
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read uploaded file failed")
		return
	}

	result, err := h.uploadService.ProcessFile(c.Request.Context(), app.ProcessFileInput{
		UserID:   userID,
		FileName: fileHeader.Filename,
		MIMEType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
		Language: c.PostForm("language"),
	})
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, extract.ErrUnsupportedType):
			response.Error(c, http.StatusUnsupportedMediaType, response.CodeUnsupportedFile, err.Error())
		case errors.Is(err, upload.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
		case errors.Is(err, extract.ErrOCRUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process file failed")
		}
		return
	}

	response.OK(c, result)
}

// List returns the user's recent upload activity.
func (h *UploadHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	records, err := h.uploadService.ListUploads(userID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list uploads failed")
		}
		return
	}

	response.OK(c, records)
}
