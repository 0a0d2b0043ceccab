package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/resumeextract/internal/batch"
	"github.com/muhammadolammi/resumeextract/internal/export"
	"github.com/muhammadolammi/resumeextract/internal/testutil"
)

func newTestApp(maxBytes int64) *fiber.App {
	p := batch.NewProcessor(batch.Options{SkipHidden: true, MaxArchiveBytes: maxBytes}, nil, zerolog.Nop())
	return New(NewBatchHandler(p, maxBytes), zerolog.Nop())
}

func upload(t *testing.T, app *fiber.App, query, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches"+query, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func resumesZip(t *testing.T) []byte {
	return testutil.Zip(t, map[string][]byte{
		"alice.docx": testutil.DOCX(t, "Alice\nalice@example.com\nSkills: Go, SQL"),
		"notes.txt":  []byte("ignored"),
		"bad.pdf":    []byte("not a pdf"),
	})
}

func TestHealth(t *testing.T) {
	app := newTestApp(1 << 20)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyzeJSON(t *testing.T) {
	app := newTestApp(1 << 20)
	resp := upload(t, app, "", "resumes.zip", resumesZip(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out BatchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Empty(t, out.Warning)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "alice.docx", out.Records[0].Document)
	assert.Equal(t, "alice@example.com", out.Records[0].Email)
	assert.Equal(t, []string{"Go", "SQL"}, out.Records[0].Skills)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "bad.pdf", out.Failures[0].Document)
	assert.Equal(t, 3, out.Stats.Scanned)
	assert.Equal(t, 2, out.Stats.Matched)
}

func TestAnalyzeCSV(t *testing.T) {
	app := newTestApp(1 << 20)
	resp := upload(t, app, "?format=csv", "resumes.zip", resumesZip(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.Filename)
	assert.NotEmpty(t, resp.Header.Get("X-Batch-Id"))

	records, err := export.ReadCSV(resp.Body)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alice@example.com", records[0].Email)
}

func TestAnalyzeXLSX(t *testing.T) {
	app := newTestApp(1 << 20)
	resp := upload(t, app, "?format=xlsx", "resumes.zip", resumesZip(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), export.XLSXFilename)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestAnalyzeEmptyBatchWarns(t *testing.T) {
	app := newTestApp(1 << 20)
	data := testutil.Zip(t, map[string][]byte{"notes.txt": []byte("nothing here")})

	for _, q := range []string{"", "?format=csv"} {
		resp := upload(t, app, q, "resumes.zip", data)
		require.Equal(t, http.StatusOK, resp.StatusCode, q)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json", q)

		var out BatchResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, StatusEmpty, out.Status)
		assert.Equal(t, EmptyWarning, out.Warning)
		assert.Empty(t, out.Records)
	}
}

func TestAnalyzeRejects(t *testing.T) {
	app := newTestApp(1 << 20)

	tests := []struct {
		name     string
		query    string
		filename string
		data     []byte
		status   int
		message  string
	}{
		{"missing file", "", "", nil, http.StatusBadRequest, "file is required"},
		{"not a zip name", "", "resume.pdf", []byte("x"), http.StatusBadRequest, "only zip"},
		{"bad format", "?format=xml", "resumes.zip", []byte("x"), http.StatusBadRequest, "unsupported format"},
		{"corrupt zip", "", "resumes.zip", []byte("definitely not a zip"), http.StatusUnprocessableEntity, "archive error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, app, tt.query, tt.filename, tt.data)
			assert.Equal(t, tt.status, resp.StatusCode)

			var out ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Contains(t, out.Message, tt.message)
		})
	}
}

func TestAnalyzeTooLarge(t *testing.T) {
	app := newTestApp(64)
	resp := upload(t, app, "", "resumes.zip", []byte(strings.Repeat("x", 128)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
