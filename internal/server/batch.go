package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/muhammadolammi/resumeextract/internal/archive"
	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/export"
	"github.com/muhammadolammi/resumeextract/internal/resume"
)

// EmptyWarning is shown when an archive yields no records.
const EmptyWarning = "No valid resumes found."

const (
	StatusCompleted = "completed"
	StatusEmpty     = "empty"
)

var errTooLarge = errors.New("file too large")

// BatchHandler accepts a zip of resumes and answers with the extracted table.
type BatchHandler struct {
	processor *batch.Processor
	maxBytes  int64
}

func NewBatchHandler(p *batch.Processor, maxBytes int64) *BatchHandler {
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}
	return &BatchHandler{processor: p, maxBytes: maxBytes}
}

// BatchResponse is the JSON results table.
type BatchResponse struct {
	BatchID  uuid.UUID       `json:"batch_id"`
	Status   string          `json:"status"`
	Warning  string          `json:"warning,omitempty"`
	Records  []RecordRow     `json:"records"`
	Failures []batch.Failure `json:"failures"`
	Stats    batch.Stats     `json:"stats"`
}

// RecordRow is one table row: the record plus the document it came from.
type RecordRow struct {
	Document string `json:"document"`
	resume.ResumeRecord
}

// Analyze handles POST /api/v1/batches. The multipart field "file" must be a
// .zip. The query parameter format selects json (default), csv or xlsx.
func (h *BatchHandler) Analyze(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", "json"))
	if format != "json" && format != "csv" && format != "xlsx" {
		return Error(c, fiber.StatusBadRequest, fmt.Sprintf("unsupported format %q: use json, csv or xlsx", format))
	}

	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return Error(c, fiber.StatusBadRequest, "file is required (zip archive)")
	}
	if strings.ToLower(filepath.Ext(fh.Filename)) != ".zip" {
		return Error(c, fiber.StatusBadRequest, "unsupported file format: only zip archives are allowed")
	}
	file, err := fh.Open()
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	data, err := readAtMost(file, h.maxBytes)
	if errors.Is(err, errTooLarge) {
		return Error(c, fiber.StatusRequestEntityTooLarge, err.Error())
	}
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	b, err := h.processor.ProcessArchive(c.UserContext(), data)
	if err != nil {
		if batch.IsArchiveError(err) {
			status := fiber.StatusUnprocessableEntity
			if errors.Is(err, archive.ErrTooLarge) {
				status = fiber.StatusRequestEntityTooLarge
			}
			return Error(c, status, err.Error())
		}
		return Error(c, fiber.StatusInternalServerError, fmt.Sprintf("batch failed: %v", err))
	}

	if b.Empty() || format == "json" {
		return JSON(c, fiber.StatusOK, toResponse(b))
	}
	return h.download(c, format, b)
}

func (h *BatchHandler) download(c *fiber.Ctx, format string, b *batch.Batch) error {
	var (
		body        []byte
		err         error
		filename    string
		contentType string
	)
	switch format {
	case "csv":
		body, err = export.CSV(b.Records)
		filename, contentType = export.Filename, "text/csv; charset=utf-8"
	default:
		body, err = export.XLSX(b.Records)
		filename, contentType = export.XLSXFilename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, fmt.Sprintf("export failed: %v", err))
	}

	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	c.Set("X-Batch-Id", b.ID.String())
	return c.Status(fiber.StatusOK).Send(body)
}

func toResponse(b *batch.Batch) BatchResponse {
	resp := BatchResponse{
		BatchID:  b.ID,
		Status:   StatusCompleted,
		Records:  make([]RecordRow, len(b.Records)),
		Failures: b.Failures,
		Stats:    b.Stats,
	}
	for i, rec := range b.Records {
		resp.Records[i] = RecordRow{Document: b.Documents[i], ResumeRecord: rec}
	}
	if b.Empty() {
		resp.Status = StatusEmpty
		resp.Warning = EmptyWarning
	}
	return resp
}

func readAtMost(f multipart.File, max int64) ([]byte, error) {
	limited := io.LimitReader(f, max+1)
	b, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(b)) > max {
		return nil, fmt.Errorf("%w: limit is %d bytes", errTooLarge, max)
	}
	return b, nil
}
