package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/muhammadolammi/resumeextract/internal/archive"
	"github.com/muhammadolammi/resumeextract/internal/decode"
	"github.com/muhammadolammi/resumeextract/internal/resume"
)

// Processor turns an archive of resumes into a Batch.
type Processor struct {
	opts     Options
	decoders *decode.Registry
	extract  func(text string) resume.ResumeRecord
	logger   zerolog.Logger
}

// NewProcessor returns a processor. A nil registry means decode.Default().
func NewProcessor(opts Options, decoders *decode.Registry, logger zerolog.Logger) *Processor {
	if decoders == nil {
		decoders = decode.Default()
	}
	return &Processor{
		opts:     opts,
		decoders: decoders,
		extract:  resume.Extract,
		logger:   logger,
	}
}

// ProcessArchive unpacks data into a temp workspace, processes every supported
// document and removes the workspace. Only archive problems return an error;
// documents that fail are reported in Batch.Failures.
func (p *Processor) ProcessArchive(ctx context.Context, data []byte) (*Batch, error) {
	if p.opts.MaxArchiveBytes > 0 && int64(len(data)) > p.opts.MaxArchiveBytes {
		return nil, &ArchiveError{Err: fmt.Errorf("%w: %d bytes, limit is %d", archive.ErrTooLarge, len(data), p.opts.MaxArchiveBytes)}
	}
	ws, err := archive.Unpack(data, archive.Options{
		MaxEntries:    p.opts.MaxEntries,
		MaxEntryBytes: p.opts.MaxEntryBytes,
		SkipHidden:    p.opts.SkipHidden,
	})
	if err != nil {
		return nil, &ArchiveError{Err: err}
	}
	defer func() {
		if err := ws.Close(); err != nil {
			p.logger.Warn().Err(err).Str("workspace", ws.Root()).Msg("failed to remove workspace")
		}
	}()

	return p.run(ctx, ws.Root(), ws.Walk)
}

// ProcessDir processes an already unpacked directory tree.
func (p *Processor) ProcessDir(ctx context.Context, root string) (*Batch, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return p.run(ctx, root, func(fn func(string) error) error {
		return archive.WalkDir(root, p.opts.SkipHidden, fn)
	})
}

func (p *Processor) run(ctx context.Context, root string, walk func(func(string) error) error) (*Batch, error) {
	start := time.Now()
	b := newBatch()

	err := walk(func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Stats.Scanned++
		if !p.decoders.Supports(path) {
			return nil
		}
		b.Stats.Matched++
		b.add(p.ProcessDocument(documentName(root, path), path))
		return nil
	})
	if err != nil {
		return b, fmt.Errorf("walk: %w", err)
	}

	p.logger.Info().
		Str("batch_id", b.ID.String()).
		Int("scanned", b.Stats.Scanned).
		Int("matched", b.Stats.Matched).
		Int("succeeded", b.Stats.Succeeded).
		Int("blank", b.Stats.Blank).
		Int("failed", b.Stats.Failed).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("batch complete")
	return b, nil
}

// ProcessDocument decodes and extracts one file. It never panics: decoder and
// extractor failures come back as a Failure outcome.
func (p *Processor) ProcessDocument(name, path string) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return p.failed(name, StageDecode, err)
	}
	text, err := p.decoders.Decode(path, data)
	if err != nil {
		return p.failed(name, StageDecode, err)
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Debug().Str("document", name).Msg("document has no text")
		return Outcome{Document: name}
	}

	rec, err := p.safeExtract(text)
	if err != nil {
		return p.failed(name, StageExtract, err)
	}
	return Outcome{Document: name, Record: &rec}
}

func (p *Processor) safeExtract(text string) (rec resume.ResumeRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return p.extract(text), nil
}

func (p *Processor) failed(name string, stage Stage, err error) Outcome {
	p.logger.Warn().Str("document", name).Str("stage", string(stage)).Err(err).Msg("document failed")
	return Outcome{
		Document: name,
		Failure:  &Failure{Document: name, Stage: stage, Message: err.Error()},
	}
}

// documentName is path relative to root with forward slashes.
func documentName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
