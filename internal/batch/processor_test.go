package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/resumeextract/internal/archive"
	"github.com/muhammadolammi/resumeextract/internal/config"
	"github.com/muhammadolammi/resumeextract/internal/resume"
	"github.com/muhammadolammi/resumeextract/internal/testutil"
)

const alice = "Alice Example\nalice@example.com\n\nBackend developer.\n\nSkills: Go, Postgres"
const bob = "Bob Example\nbob@example.org\n\nI use Python and AWS daily."

func newTestProcessor() *Processor {
	return NewProcessor(OptionsFrom(config.Default().Batch), nil, zerolog.Nop())
}

func mixedArchive(t *testing.T) []byte {
	return testutil.Zip(t, map[string][]byte{
		"01_alice.docx":    testutil.DOCX(t, alice),
		"02_broken.pdf":    []byte("%PDF-1.7 this file was cut short"),
		"03_notes.txt":     []byte("not a resume"),
		"04_blank.docx":    testutil.DOCXBody(t, "<w:p></w:p>"),
		"05_broken.docx":   []byte("zip? no"),
		"sub/06_bob.DOCX":  testutil.DOCX(t, bob),
		".hidden.docx":     testutil.DOCX(t, "ignored@example.com"),
		"__MACOSX/._x.pdf": []byte("resource fork"),
	})
}

func TestProcessArchiveMixedBatch(t *testing.T) {
	b, err := newTestProcessor().ProcessArchive(context.Background(), mixedArchive(t))
	require.NoError(t, err)

	require.Len(t, b.Records, 2)
	assert.Equal(t, []string{"01_alice.docx", "sub/06_bob.DOCX"}, b.Documents)
	assert.Equal(t, "alice@example.com", b.Records[0].Email)
	assert.Equal(t, []string{"Go", "Postgres"}, b.Records[0].Skills)
	assert.Equal(t, "bob@example.org", b.Records[1].Email)
	assert.Equal(t, []string{"python", "aws"}, b.Records[1].Skills)

	require.Len(t, b.Failures, 2)
	assert.Equal(t, "02_broken.pdf", b.Failures[0].Document)
	assert.Equal(t, StageDecode, b.Failures[0].Stage)
	assert.NotEmpty(t, b.Failures[0].Message)
	assert.Equal(t, "05_broken.docx", b.Failures[1].Document)

	assert.Equal(t, Stats{Scanned: 6, Matched: 5, Succeeded: 2, Blank: 1, Failed: 2}, b.Stats)
	assert.False(t, b.Empty())
}

func TestProcessArchiveRemovesWorkspace(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	_, err := newTestProcessor().ProcessArchive(context.Background(), mixedArchive(t))
	require.NoError(t, err)

	left, _ := filepath.Glob(filepath.Join(tmp, "resumes-*"))
	assert.Empty(t, left)
}

func TestProcessArchiveRejectsNonArchive(t *testing.T) {
	b, err := newTestProcessor().ProcessArchive(context.Background(), []byte("not a zip at all"))
	assert.Nil(t, b)
	require.Error(t, err)
	assert.True(t, IsArchiveError(err))
	assert.True(t, errors.Is(err, archive.ErrNotArchive))
}

func TestProcessArchiveSizeLimit(t *testing.T) {
	p := NewProcessor(Options{MaxArchiveBytes: 10}, nil, zerolog.Nop())
	_, err := p.ProcessArchive(context.Background(), mixedArchive(t))
	assert.True(t, IsArchiveError(err))
	assert.True(t, errors.Is(err, archive.ErrTooLarge))
}

func TestProcessArchiveEmptyBatch(t *testing.T) {
	data := testutil.Zip(t, map[string][]byte{
		"readme.md":  []byte("# resumes"),
		"blank.docx": testutil.DOCXBody(t, "<w:p><w:r><w:t>   </w:t></w:r></w:p>"),
	})
	b, err := newTestProcessor().ProcessArchive(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, b.Empty())
	assert.Empty(t, b.Failures)
	assert.NotNil(t, b.Records)
}

func TestProcessArchiveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProcessor().ProcessArchive(ctx, mixedArchive(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsArchiveError(err))
}

func TestExtractorPanicIsPerDocument(t *testing.T) {
	p := newTestProcessor()
	p.extract = func(text string) resume.ResumeRecord {
		if text == "boom" {
			panic("unexpected input")
		}
		return resume.Extract(text)
	}

	data := testutil.Zip(t, map[string][]byte{
		"a.docx": testutil.DOCX(t, "boom"),
		"b.docx": testutil.DOCX(t, bob),
	})
	b, err := p.ProcessArchive(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, b.Failures, 1)
	assert.Equal(t, Failure{Document: "a.docx", Stage: StageExtract, Message: "extractor panic: unexpected input"}, b.Failures[0])
	assert.Equal(t, []string{"b.docx"}, b.Documents)
}

func TestProcessDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "team"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "team", "alice.docx"), testutil.DOCX(t, alice), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cover.txt"), []byte("hi"), 0o644))

	b, err := newTestProcessor().ProcessDir(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"team/alice.docx"}, b.Documents)

	_, err = newTestProcessor().ProcessDir(context.Background(), filepath.Join(root, "cover.txt"))
	assert.Error(t, err)
}

func TestBatchFoldNeverShortCircuits(t *testing.T) {
	b := newBatch()
	rec := resume.Extract(alice)
	b.add(Outcome{Document: "x", Failure: &Failure{Document: "x", Stage: StageDecode, Message: "bad"}})
	b.add(Outcome{Document: "y"})
	b.add(Outcome{Document: "z", Record: &rec})

	assert.Equal(t, Stats{Succeeded: 1, Blank: 1, Failed: 1}, b.Stats)
	assert.Equal(t, []string{"z"}, b.Documents)
}
