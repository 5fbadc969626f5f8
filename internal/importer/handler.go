package importer

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	httperr "github.com/crosstab-io/crosstab/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const (
	msgFileRequired  = "Multipart file field \"file\" is required"
	msgPersistFailed = "Failed to persist imported records"
)

// importError carries the structured HTTP error shape from a helper back to
// the handler. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type importError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *importError) Error() string {
	return e.message
}

// RegisterRoutes registers the data import API.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/v1/import")
	api.POST("/:analytics_type/csv", s.ImportCSVHandler)
	api.POST("/:analytics_type/json", s.ImportJSONHandler)
}

// ImportCSVHandler handles POST /api/v1/import/:analytics_type/csv.
func (s *Service) ImportCSVHandler(c *gin.Context) {
	s.handleImport(c, FormatCSV)
}

// ImportJSONHandler handles POST /api/v1/import/:analytics_type/json.
func (s *Service) ImportJSONHandler(c *gin.Context) {
	s.handleImport(c, FormatJSON)
}

func (s *Service) handleImport(c *gin.Context, format Format) {
	t, err := domain.ParseType(c.Param("analytics_type"))
	if err != nil {
		writeImportError(c, &importError{
			statusCode: http.StatusUnprocessableEntity,
			errorType:  httperr.HttpUnsupportedTypeError,
			message:    err.Error(),
		})
		return
	}

	file, size, ierr := s.openUpload(c)
	if ierr != nil {
		writeImportError(c, ierr)
		return
	}
	defer file.Close()

	res, err := s.Import(c.Request.Context(), t, format, file)
	if err != nil {
		if errors.Is(err, ErrMalformedPayload) {
			slog.Warn("Rejected malformed import upload",
				"analytics_type", t, "format", format, "error", err)
			writeImportError(c, &importError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpImportError,
				message:    err.Error(),
			})
			return
		}

		slog.Error("Import failed", "analytics_type", t, "format", format, "error", err)
		writeImportError(c, &importError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		})
		return
	}

	slog.Info("Imported records",
		"analytics_type", t,
		"format", format,
		"records_imported", res.RecordsImported,
		"records_skipped", res.RecordsSkipped,
		"upload_size", size)

	c.JSON(http.StatusOK, res)
}

// openUpload pulls the uploaded file out of the multipart form and enforces
// the configured size ceiling before any decoding starts.
func (s *Service) openUpload(c *gin.Context) (multipart.File, int64, *importError) {
	header, err := c.FormFile("file")
	if err != nil {
		slog.Warn("Import request missing file upload", "error", err)
		return nil, 0, &importError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpImportError,
			message:    msgFileRequired,
		}
	}

	if header.Size > s.maxBodySizeBytes {
		slog.Warn("Import upload exceeds maximum size", "size", header.Size, "max", s.maxBodySizeBytes)
		return nil, header.Size, &importError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpImportError,
			message:    "Uploaded file exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": s.maxBodySizeBytes / (1024 * 1024),
			},
		}
	}

	file, err := header.Open()
	if err != nil {
		slog.Error("Failed to open uploaded file", "error", err)
		return nil, header.Size, &importError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to read uploaded file",
		}
	}
	return file, header.Size, nil
}

// writeImportError serializes an importError as the JSON HTTP response.
func writeImportError(c *gin.Context, err *importError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
