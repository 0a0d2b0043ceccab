// Package batch runs the field extractor over every document in an archive and
// folds the per-document outcomes into one Batch.
package batch

import (
	"errors"

	"github.com/google/uuid"

	"github.com/muhammadolammi/resumeextract/internal/config"
	"github.com/muhammadolammi/resumeextract/internal/resume"
)

// Options bounds one run. Build it from configuration and pass it in; the
// processor reads nothing else.
type Options struct {
	SkipHidden      bool
	MaxEntries      int
	MaxEntryBytes   int64
	MaxArchiveBytes int64
}

// OptionsFrom copies the batch section of the service configuration.
func OptionsFrom(c config.BatchConfig) Options {
	return Options{
		SkipHidden:      c.SkipHidden,
		MaxEntries:      c.MaxEntries,
		MaxEntryBytes:   c.MaxEntryBytes,
		MaxArchiveBytes: c.MaxArchiveBytes,
	}
}

// Stage names where a document failed.
type Stage string

const (
	StageDecode  Stage = "decode"
	StageExtract Stage = "extract"
)

// Failure is the per-document error notice.
type Failure struct {
	Document string `json:"document"`
	Stage    Stage  `json:"stage"`
	Message  string `json:"message"`
}

// Stats counts what the traversal saw.
type Stats struct {
	Scanned   int `json:"scanned"`
	Matched   int `json:"matched"`
	Succeeded int `json:"succeeded"`
	Blank     int `json:"blank"`
	Failed    int `json:"failed"`
}

// Batch is the result of one archive run. Records are in traversal order and
// Documents[i] names the source of Records[i].
type Batch struct {
	ID        uuid.UUID             `json:"batch_id"`
	Records   []resume.ResumeRecord `json:"records"`
	Documents []string              `json:"documents"`
	Failures  []Failure             `json:"failures"`
	Stats     Stats                 `json:"stats"`
}

func newBatch() *Batch {
	return &Batch{
		ID:        uuid.New(),
		Records:   []resume.ResumeRecord{},
		Documents: []string{},
		Failures:  []Failure{},
	}
}

// Empty reports whether no document produced a record. An empty batch is a
// warning state, not an error.
func (b *Batch) Empty() bool { return len(b.Records) == 0 }

// Outcome is what processing one document yields: a record, a failure, or
// nothing when the document decoded to blank text.
type Outcome struct {
	Document string
	Record   *resume.ResumeRecord
	Failure  *Failure
}

// add folds one outcome into the batch. It never rejects an outcome.
func (b *Batch) add(o Outcome) {
	switch {
	case o.Failure != nil:
		b.Failures = append(b.Failures, *o.Failure)
		b.Stats.Failed++
	case o.Record != nil:
		b.Records = append(b.Records, *o.Record)
		b.Documents = append(b.Documents, o.Document)
		b.Stats.Succeeded++
	default:
		b.Stats.Blank++
	}
}

// ArchiveError marks a batch-fatal failure to read the uploaded archive.
type ArchiveError struct {
	Err error
}

func (e *ArchiveError) Error() string { return "archive error: " + e.Err.Error() }

func (e *ArchiveError) Unwrap() error { return e.Err }

// IsArchiveError reports whether err aborted the whole batch because of the archive.
func IsArchiveError(err error) bool {
	var ae *ArchiveError
	return errors.As(err, &ae)
}
