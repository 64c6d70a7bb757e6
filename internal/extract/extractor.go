// Package extract turns one uploaded document into extracted venue or vendor
// records using a structured-output language model.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/venue-planner/constants"
	"github.com/joseph-ayodele/venue-planner/internal/document"
	"github.com/joseph-ayodele/venue-planner/internal/entity"
	"github.com/joseph-ayodele/venue-planner/internal/llm"
)

// Extractor produces records of type T from one file. A returned error fails
// the job and its message is shown to the user.
type Extractor[T any] interface {
	Extract(ctx context.Context, f document.File) ([]T, error)
}

// Func adapts a function to Extractor.
type Func[T any] func(ctx context.Context, f document.File) ([]T, error)

func (fn Func[T]) Extract(ctx context.Context, f document.File) ([]T, error) { return fn(ctx, f) }

var ErrNoRecords = errors.New("no records found in document")

// TextLayer reads text out of an attached document, typically by OCR.
type TextLayer interface {
	Text(ctx context.Context, f document.File) (string, error)
}

// Config tunes the calls made to the model.
type Config struct {
	Temperature float32
	MaxTokens   int
	// AllowEmpty turns a document with no usable records into an empty result
	// instead of a failed job.
	AllowEmpty bool
	// TextLayer, when set, adds its text to the prompt for attached files.
	// Its failures are logged and otherwise ignored.
	TextLayer TextLayer
}

// LLMExtractor is the model-backed Extractor for one record kind.
type LLMExtractor[T any] struct {
	kind       entity.Kind
	gen        llm.Generator
	cfg        Config
	logger     *slog.Logger
	categories []string
	schema     map[string]any
	validator  *llm.SchemaValidator
	system     string
}

// NewVenueExtractor builds the venue adapter.
func NewVenueExtractor(gen llm.Generator, cfg Config, logger *slog.Logger) (*LLMExtractor[entity.VenueFields], error) {
	return newLLMExtractor[entity.VenueFields](entity.KindVenue, gen, cfg, logger)
}

// NewVendorExtractor builds the vendor adapter; categories are constrained to
// the canonical list.
func NewVendorExtractor(gen llm.Generator, cfg Config, logger *slog.Logger) (*LLMExtractor[entity.VendorFields], error) {
	return newLLMExtractor[entity.VendorFields](entity.KindVendor, gen, cfg, logger)
}

func newLLMExtractor[T any](kind entity.Kind, gen llm.Generator, cfg Config, logger *slog.Logger) (*LLMExtractor[T], error) {
	if gen == nil {
		return nil, errors.New("extract: generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var cats []string
	if kind == entity.KindVendor {
		cats = constants.VendorCategoryStrings()
	}
	schema := llm.BuildJSONSchema(kind, cats)
	v, err := llm.CompileSchema(kind.Plural()+".schema.json", schema)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return &LLMExtractor[T]{
		kind:       kind,
		gen:        gen,
		cfg:        cfg,
		logger:     logger.With("kind", string(kind)),
		categories: cats,
		schema:     schema,
		validator:  v,
		system:     llm.BuildSystemPrompt(kind, cats),
	}, nil
}

func (e *LLMExtractor[T]) Kind() entity.Kind { return e.kind }

func (e *LLMExtractor[T]) Extract(ctx context.Context, f document.File) ([]T, error) {
	start := time.Now()

	prep, err := document.Prepare(f)
	if err != nil {
		return nil, err
	}

	if prep.Attached() && e.cfg.TextLayer != nil {
		text, err := e.cfg.TextLayer.Text(ctx, f)
		if err != nil {
			e.logger.Warn("extract.text_layer.failed", "file", f.Name, "error", err)
		} else {
			prep.Text = text
		}
	}

	parts := make([]llm.Part, 0, 2)
	if prep.Attached() {
		parts = append(parts, llm.Part{MIMEType: prep.MIMEType, Data: prep.Inline})
	}
	parts = append(parts, llm.Part{Text: llm.BuildUserPrompt(f.Name, prep.Text, prep.Attached())})

	e.logger.Info("extract.start", "file", f.Name, "attached", prep.Attached(), "text_bytes", len(prep.Text), "model", e.gen.Model())

	raw, err := e.gen.Generate(ctx, llm.Request{
		System:      e.system,
		Parts:       parts,
		Schema:      e.schema,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	records, err := e.decode(raw)
	if err != nil {
		e.logger.Error("extract.decode.failed", "file", f.Name, "error", err, "raw_bytes", len(raw))
		return nil, err
	}
	if len(records) == 0 && !e.cfg.AllowEmpty {
		return nil, ErrNoRecords
	}

	e.logger.Info("extract.ok", "file", f.Name, "records", len(records), "elapsed_ms", time.Since(start).Milliseconds())
	return records, nil
}

// decode normalises the model output, validates it strictly and falls back to
// dropping invalid optional fields before decoding.
func (e *LLMExtractor[T]) decode(raw []byte) ([]T, error) {
	doc, _, err := llm.NormalizeAndSanitizeJSON(raw, e.kind, e.logger)
	if err != nil {
		return nil, fmt.Errorf("model returned malformed JSON: %w", err)
	}

	if verr := e.validator.Validate(doc); verr != nil {
		lenient, dropped, serr := llm.SanitizeOptionalFields(doc, e.kind, e.categories)
		if serr != nil {
			return nil, fmt.Errorf("model output failed validation: %w", verr)
		}
		if err := e.validator.Validate(lenient); err != nil {
			return nil, fmt.Errorf("model output failed validation: %w", err)
		}
		e.logger.Warn("extract.validate.lenient", "dropped", dropped, "strict_error", verr.Error())
		doc = lenient
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(doc, &envelope); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	var records []T
	if list, ok := envelope[e.kind.Plural()]; ok {
		if err := json.Unmarshal(list, &records); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
	}
	return cleanRecords(records), nil
}

// cleanRecords trims names, drops unnamed records and canonicalises vendor
// categories.
func cleanRecords[T any](records []T) []T {
	out := records[:0]
	for _, r := range records {
		switch rec := any(&r).(type) {
		case *entity.VenueFields:
			rec.Name = strings.TrimSpace(rec.Name)
			if rec.Name == "" {
				continue
			}
		case *entity.VendorFields:
			rec.Name = strings.TrimSpace(rec.Name)
			if rec.Name == "" {
				continue
			}
			canon, _ := constants.Canonicalize(rec.Category)
			rec.Category = string(canon)
		}
		out = append(out, r)
	}
	return out
}
