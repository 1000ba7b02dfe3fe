package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/connectfiber/sar-extractor/internal/pdf"
)

const (
	uploadField = "pdfs"

	serviceName = "SAR Address Extraction"

	msgNoFile          = `Aucun fichier fourni. Utilisez le champ "pdfs" pour envoyer vos fichiers PDF.`
	msgEmptyList       = "Liste de fichiers vide"
	msgTooLarge        = "Fichier(s) trop volumineux: taille maximale %d MB"
	msgTooManyRequests = "Trop de requêtes, réessayez plus tard"
	serverErrorPrefix  = "Erreur serveur: "
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func serverError(cause any) errorResponse {
	return errorResponse{Success: false, Error: fmt.Sprint(serverErrorPrefix, cause)}
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status                   string  `json:"status"`
	Service                  string  `json:"service"`
	Version                  string  `json:"version"`
	MaxUploadMB              int64   `json:"max_upload_mb"`
	ExtractionTimeoutSeconds float64 `json:"extraction_timeout_seconds"`
}

func (s *Server) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName + " API",
		"version": s.config.Version,
		"endpoints": gin.H{
			"/":                        "Cette page",
			"/api/health":              "Health check",
			"/api/extract-sar-address": `Extraire une adresse depuis un PDF SAR (POST multipart/form-data avec fichier "pdfs")`,
		},
		"usage": gin.H{
			"method":       http.MethodPost,
			"endpoint":     "/api/extract-sar-address",
			"content_type": "multipart/form-data",
			"field_name":   uploadField,
			"response": gin.H{
				"success": true,
				"results": []gin.H{{
					"success":   true,
					"file_name": "exemple.pdf",
					"data": gin.H{
						"address": "av. du Simplon 4A",
						"npa":     "1870",
						"commune": "Monthey",
					},
					"page": 1,
				}},
				"count":         1,
				"success_count": 1,
			},
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:                   "healthy",
		Service:                  serviceName,
		Version:                  s.config.Version,
		MaxUploadMB:              s.config.MaxUploadMB,
		ExtractionTimeoutSeconds: s.config.ExtractionTimeout.Seconds(),
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	logger := s.logger.With("request_id", RequestID(c.Request.Context()))
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes())

	form, err := c.MultipartForm()
	switch {
	case isTooLarge(err):
		logger.Warn("upload rejected", "error", err, "max_upload_mb", s.config.MaxUploadMB)
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf(msgTooLarge, s.config.MaxUploadMB),
		})
		return
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		logger.Warn("no file provided", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoFile})
		return
	case err != nil:
		logger.Error("cannot read upload", "error", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, serverError(err))
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files, hasFiles := form.File[uploadField]
	_, hasValue := form.Value[uploadField]
	if !hasFiles && !hasValue {
		logger.Warn("no file provided")
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoFile})
		return
	}
	if len(files) == 0 {
		logger.Warn("empty file list")
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgEmptyList})
		return
	}

	logger.Info("files received", "count", len(files))

	docs := make([]pdf.Document, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			logger.Error("cannot read uploaded file", "file", fh.Filename, "error", err)
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, serverError(err))
			return
		}
		docs = append(docs, pdf.Document{Name: fh.Filename, Data: data})
	}

	batch := s.extractor.ExtractBatch(c.Request.Context(), docs)
	logger.Info("extraction finished", "success_count", batch.SuccessCount, "count", batch.Count)
	c.JSON(http.StatusOK, batch)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	return data, nil
}

func isTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
