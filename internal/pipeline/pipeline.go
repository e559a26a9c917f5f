package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/storage"
	"pdf-translator/internal/translate"
)

// DetectSampleSize caps the text sample sent to language detection
const DetectSampleSize = 1000

// PipelineErrorCode identifies orchestration-level failures
type PipelineErrorCode string

const (
	// ErrNoText indicates a readable PDF with no extractable text
	ErrNoText PipelineErrorCode = "PDF_NO_TEXT"
	// ErrCanceled indicates the request ended before the pipeline finished
	ErrCanceled PipelineErrorCode = "REQUEST_CANCELED"
)

// PipelineError represents an orchestration failure
type PipelineError struct {
	Code    PipelineErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Extractor pulls positioned text out of a stored PDF
type Extractor interface {
	Extract(path string) ([]pdf.TextSegment, error)
}

// Rebuilder writes translated segments onto a copy of the original
type Rebuilder interface {
	Rebuild(originalPath string, segments []pdf.TranslatedSegment, outputPath string) error
}

// Pipeline runs translation requests end to end
type Pipeline struct {
	extractor   Extractor
	rebuilder   Rebuilder
	translator  translate.Translator
	store       *storage.Store
	concurrency int
}

// New creates a Pipeline
func New(extractor Extractor, rebuilder Rebuilder, translator translate.Translator, store *storage.Store, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		extractor:   extractor,
		rebuilder:   rebuilder,
		translator:  translator,
		store:       store,
		concurrency: concurrency,
	}
}

// Run drives job from received to ready. On any failure the job moves to
// failed and its artifacts are deleted; the returned error carries the
// cause. On success the rebuilt PDF waits at job.OutputPath() and the
// caller owns the final served-or-failed transition.
func (p *Pipeline) Run(ctx context.Context, job *Job, source, target string) error {
	if err := p.run(ctx, job, source, target); err != nil {
		job.Fail()
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, job *Job, source, target string) error {
	logger.Info("translation started",
		logger.String("job", job.ID),
		logger.String("file", job.OriginalName),
		logger.String("source", source),
		logger.String("target", target))

	// Extract
	if err := job.advance(); err != nil {
		return err
	}
	segments, err := p.extractor.Extract(job.uploadPath)
	if err != nil {
		return err
	}
	if !pdf.HasText(segments) {
		return &PipelineError{Code: ErrNoText, Message: "no translatable text in document"}
	}

	// Translate
	if err := job.advance(); err != nil {
		return err
	}
	if source == "" || source == "auto" {
		source = p.detectSource(ctx, segments)
	}
	translated, err := p.translateSegments(ctx, segments, source, target)
	if err != nil {
		if ctx.Err() != nil {
			return &PipelineError{Code: ErrCanceled, Message: "request ended during translation", Cause: err}
		}
		return err
	}

	// Rebuild
	if err := job.advance(); err != nil {
		return err
	}
	outputPath := p.store.OutputPath()
	if err := p.rebuilder.Rebuild(job.uploadPath, translated, outputPath); err != nil {
		return err
	}
	job.setOutput(outputPath)

	if err := job.advance(); err != nil {
		return err
	}

	logger.Info("translation ready",
		logger.String("job", job.ID),
		logger.Int("segments", len(translated)))
	return nil
}

// detectSource runs one document-level detection over a bounded sample of
// the extracted text. Detection failure is not fatal: the API accepts
// "auto" and detects per request.
func (p *Pipeline) detectSource(ctx context.Context, segments []pdf.TextSegment) string {
	sample := buildDetectSample(segments, DetectSampleSize)
	if sample == "" {
		return "auto"
	}

	detected, err := p.translator.Detect(ctx, sample)
	if err != nil {
		logger.Warn("language detection failed, deferring to the API", logger.Err(err))
		return "auto"
	}

	logger.Info("source language detected", logger.String("language", detected))
	return detected
}

// buildDetectSample concatenates segment text up to limit bytes
func buildDetectSample(segments []pdf.TextSegment, limit int) string {
	var sb strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(text)
		if sb.Len() >= limit {
			break
		}
	}

	sample := sb.String()
	if len(sample) > limit {
		cut := limit
		for cut > 0 && sample[cut]&0xC0 == 0x80 {
			cut--
		}
		sample = sample[:cut]
	}
	return sample
}

// translateSegments translates every non-empty segment concurrently,
// preserving input order in the result. Whitespace-only segments pass
// through untouched and never reach the API.
func (p *Pipeline) translateSegments(ctx context.Context, segments []pdf.TextSegment, source, target string) ([]pdf.TranslatedSegment, error) {
	results := make([]pdf.TranslatedSegment, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, seg := range segments {
		results[i].TextSegment = seg

		if strings.TrimSpace(seg.Text) == "" {
			results[i].TranslatedText = seg.Text
			continue
		}

		i, seg := i, seg
		g.Go(func() error {
			out, err := p.translator.Translate(gctx, seg.Text, source, target)
			if err != nil {
				return err
			}
			results[i].TranslatedText = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
