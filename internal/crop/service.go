package crop

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/pdf-cropper/internal/domain"
	"github.com/spherical/pdf-cropper/internal/observability"
	"github.com/spherical/pdf-cropper/internal/pdf"
)

const (
	// DefaultSuffix is appended to output file names.
	DefaultSuffix = "_cropped"
	// DefaultMargin is the padding around detected content, in points.
	DefaultMargin = 5
	// DefaultEventBuffer is the capacity of the channel returned by Start.
	DefaultEventBuffer = 16
)

// Request describes one batch run. Files are processed in the given order.
type Request struct {
	Files     []string
	Suffix    string
	Margin    int
	Mode      domain.ExportMode
	OutputDir string
}

// NewRequest returns a whole-document request with the default suffix and margin.
func NewRequest(files ...string) Request {
	return Request{
		Files:  files,
		Suffix: DefaultSuffix,
		Margin: DefaultMargin,
		Mode:   domain.ExportWholeDocument,
	}
}

func (r Request) normalized() Request {
	r.Suffix = strings.TrimSpace(r.Suffix)
	if r.Suffix == "" {
		r.Suffix = DefaultSuffix
	}
	if r.Mode == "" {
		r.Mode = domain.ExportWholeDocument
	}
	r.Files = append([]string(nil), r.Files...)
	return r
}

// Service runs batch crop jobs.
type Service struct {
	backend     domain.Backend
	exporter    *Exporter
	validator   *pdf.Validator
	logger      *observability.Logger
	eventBuffer int
}

// Option configures a Service.
type Option func(*Service)

// WithEventBuffer sets the capacity of the channel returned by Start.
func WithEventBuffer(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.eventBuffer = n
		}
	}
}

// NewService creates a batch service that opens documents through backend.
func NewService(backend domain.Backend, logger *observability.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	s := &Service{
		backend:     backend,
		exporter:    NewExporter(NewDetector(logger), logger),
		validator:   pdf.NewValidator(logger),
		logger:      logger.WithOperation("crop"),
		eventBuffer: DefaultEventBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a request before any file is touched.
func (s *Service) Validate(req Request) error {
	req = req.normalized()
	if err := s.validator.ValidateMargin(req.Margin); err != nil {
		return err
	}
	if err := s.validator.ValidateSuffix(req.Suffix); err != nil {
		return err
	}
	if req.Mode != domain.ExportWholeDocument && req.Mode != domain.ExportPerPage {
		return domain.ValidationError(fmt.Sprintf("unknown export mode %q", req.Mode), nil)
	}
	return s.validator.ValidateFiles(req.Files)
}

// Start validates req and runs the batch on its own goroutine. Events arrive
// in processing order; the last one is EventComplete carrying the
// *domain.BatchResult, after which the channel is closed. Callers must drain
// the channel until it is closed.
func (s *Service) Start(ctx context.Context, req Request) (<-chan domain.StreamEvent, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	events := make(chan domain.StreamEvent, s.eventBuffer)
	go func() {
		defer close(events)
		s.run(ctx, req.normalized(), events)
	}()
	return events, nil
}

// ProcessBatch validates req and processes it on the calling goroutine. Only
// validation failures are returned as errors; per-file failures are recorded
// in the result. events may be nil.
func (s *Service) ProcessBatch(ctx context.Context, req Request, events chan<- domain.StreamEvent) (*domain.BatchResult, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	return s.run(ctx, req.normalized(), events), nil
}

func (s *Service) run(ctx context.Context, req Request, events chan<- domain.StreamEvent) *domain.BatchResult {
	start := time.Now()
	result := &domain.BatchResult{
		RunID:      uuid.NewString(),
		TotalFiles: len(req.Files),
		Errors:     []string{},
	}
	logger := s.logger.WithRun(result.RunID)

	logger.Info().
		Int("files", len(req.Files)).
		Str("mode", string(req.Mode)).
		Int("margin", req.Margin).
		Msg("batch started")
	emit(events, domain.StreamEvent{
		Type:    domain.EventStart,
		Payload: fmt.Sprintf("cropping %d files", len(req.Files)),
	})

	for i, path := range req.Files {
		if ctx.Err() != nil {
			result.Cancelled = true
			logger.Warn().Int("remaining", len(req.Files)-i).Msg("batch cancelled")
			break
		}

		index := i + 1
		name := filepath.Base(path)
		emit(events, domain.StreamEvent{
			Type:      domain.EventFileProcessing,
			FileIndex: index,
			FileName:  name,
			Payload:   path,
		})

		fileResult := s.processFile(path, req, func(outcome domain.PageOutcome) {
			emit(events, domain.StreamEvent{
				Type:       domain.EventPageComplete,
				FileIndex:  index,
				FileName:   name,
				PageNumber: outcome.Number,
				Payload:    outcome,
			})
		})

		result.Files = append(result.Files, fileResult)
		result.Artifacts += fileResult.Artifacts

		if fileResult.Err != nil {
			msg := fmt.Sprintf("file %s: %v", name, fileResult.Err)
			result.Errors = append(result.Errors, msg)
			logger.Error().Str("file", path).Err(fileResult.Err).Int("artifacts", fileResult.Artifacts).Msg("file failed")
			emit(events, domain.StreamEvent{
				Type:      domain.EventError,
				FileIndex: index,
				FileName:  name,
				Payload:   msg,
			})
		} else {
			result.ProcessedFiles++
			logger.Info().Str("file", path).Int("artifacts", fileResult.Artifacts).Msg("file processed")
		}

		fr := fileResult
		emit(events, domain.StreamEvent{
			Type:      domain.EventFileComplete,
			FileIndex: index,
			FileName:  name,
			Payload:   &fr,
		})
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("processed", result.ProcessedFiles).
		Int("total", result.TotalFiles).
		Int("artifacts", result.Artifacts).
		Bool("cancelled", result.Cancelled).
		Dur("duration", result.Duration).
		Msg("batch finished")
	emit(events, domain.StreamEvent{
		Type:    domain.EventComplete,
		Payload: result,
	})
	return result
}

// processFile opens, exports and closes one document. Panics raised while
// handling the file are recorded as processing errors.
func (s *Service) processFile(path string, req Request, observe PageObserver) (res domain.FileJobResult) {
	res.Path = path
	defer func() {
		if r := recover(); r != nil {
			res.Err = domain.ProcessingError(fmt.Sprintf("unexpected failure: %v", r), nil)
			res.Error = res.Err.Error()
		}
	}()

	doc, err := s.backend.Open(path)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			s.logger.Warn().Str("file", path).Err(cerr).Msg("close failed")
		}
	}()

	outputs, err := s.exporter.Export(doc, path, req.Mode, ExportOptions{
		Suffix:    req.Suffix,
		Margin:    req.Margin,
		OutputDir: req.OutputDir,
	}, observe)
	res.Outputs = outputs
	res.Artifacts = len(outputs)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
	}
	return res
}

// emit delivers an event, blocking until the consumer receives it.
func emit(events chan<- domain.StreamEvent, event domain.StreamEvent) {
	if events == nil {
		return
	}
	event.Timestamp = time.Now()
	events <- event
}
