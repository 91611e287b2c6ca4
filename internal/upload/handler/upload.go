package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hcdash/hcdash-backend/internal/upload/service"
	"github.com/hcdash/hcdash-backend/pkg/config"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadHandler handles spreadsheet imports
type UploadHandler struct {
	service     *service.UploadService
	maxFileSize int64
	logger      *logger.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(svc *service.UploadService, cfg *config.UploadConfig, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		service:     svc,
		maxFileSize: cfg.MaxFileSize,
		logger:      log.WithComponent("upload"),
	}
}

// Upload handles POST /api/uploads/{metric}
// Accepts a multipart form with the spreadsheet in the "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// multipart framing needs a little room above the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, r, h.logger,
				apperrors.NewWithKey("FILE_TOO_LARGE", "upload.too_large", http.StatusRequestEntityTooLarge))
			return
		}
		httputil.RespondError(w, r, h.logger, noFile())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, r, h.logger, noFile())
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		httputil.RespondError(w, r, h.logger,
			apperrors.NewWithKey("FILE_TOO_LARGE", "upload.too_large", http.StatusRequestEntityTooLarge))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondError(w, r, h.logger, apperrors.Internal("failed to read uploaded file"))
		return
	}

	result, err := h.service.Import(r.Context(), chi.URLParam(r, "metric"), header.Filename, data)
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Template handles GET /api/uploads/{metric}/template
func (h *UploadHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, fileName, err := h.service.Template(chi.URLParam(r, "metric"))
	if err != nil {
		httputil.RespondError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func noFile() error {
	return apperrors.NewWithKey("NO_FILE", "upload.no_file", http.StatusBadRequest)
}
