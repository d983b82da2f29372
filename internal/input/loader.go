// Package input reads a profile batch from JSON and turns it into validated
// profiles.
package input

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/profile"
)

var (
	// ErrReadInput indicates that the input could not be read.
	ErrReadInput = errors.New("reading input")

	// ErrSchema indicates that the document does not have the expected structure.
	ErrSchema = errors.New("input does not match schema")

	// ErrMalformedRecord indicates a profile or answer that cannot be used.
	ErrMalformedRecord = errors.New("malformed record")
)

// Skip reasons, also used as metric labels.
const (
	ReasonMalformed         = "malformed"
	ReasonUnknownImportance = "unknown_importance"
	ReasonDuplicateQuestion = "duplicate_question"
	ReasonDuplicateProfile  = "duplicate_profile"
)

const rawLogLimit = 160

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type rawDocument struct {
	Profiles []json.RawMessage `json:"profiles"`
}

type rawProfile struct {
	ID      *int              `json:"id" validate:"required"`
	Answers []json.RawMessage `json:"answers" validate:"required"`
}

type rawAnswer struct {
	QuestionID        *int  `json:"questionId" validate:"required"`
	Answer            *int  `json:"answer" validate:"required"`
	AcceptableAnswers []int `json:"acceptableAnswers" validate:"required"`
	Importance        *int  `json:"importance" validate:"required"`
}

// Options controls how records that fail validation are handled.
type Options struct {
	// Strict makes the first bad record fail the whole load.
	Strict bool
	Logger *zap.Logger
}

// Skip describes a record left out of the batch.
type Skip struct {
	Record string
	Reason string
	Err    error
}

// Batch is the outcome of a load.
type Batch struct {
	Profiles []*profile.Profile
	Skipped  []Skip
}

// SkippedBy counts skipped records per reason.
func (b *Batch) SkippedBy() map[string]int {
	counts := make(map[string]int)
	for _, s := range b.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// Load reads and parses the profile batch at path.
func Load(ctx context.Context, path string, opts Options) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrReadInput, path, err)
	}

	return Parse(ctx, data, opts)
}

// Parse builds profiles from a JSON document.
func Parse(ctx context.Context, data []byte, opts Options) (*Batch, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	p := &parser{opts: opts, log: log, seen: make(map[int]int)}
	batch := &Batch{Profiles: make([]*profile.Profile, 0, len(doc.Profiles))}

	for i, raw := range doc.Profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prof, err := p.profile(i, raw)
		if err != nil {
			return nil, err
		}
		if prof != nil {
			batch.Profiles = append(batch.Profiles, prof)
		}
	}

	batch.Skipped = p.skipped
	log.Debug("input parsed",
		zap.Int("profiles", len(batch.Profiles)),
		zap.Int("skipped", len(batch.Skipped)),
	)
	return batch, nil
}

type parser struct {
	opts    Options
	log     *zap.Logger
	seen    map[int]int
	skipped []Skip
}

// skip records a rejected record. In strict mode it returns the error that
// ends the load instead.
func (p *parser) skip(record, reason string, raw json.RawMessage, err error) error {
	if p.opts.Strict {
		return fmt.Errorf("%s: %w", record, err)
	}

	p.log.Warn("skipping record",
		zap.String("record", record),
		zap.String("reason", reason),
		zap.String("raw", logger.TruncateForLog(string(raw), rawLogLimit)),
		zap.Error(err),
	)
	p.skipped = append(p.skipped, Skip{Record: record, Reason: reason, Err: err})
	return nil
}

func (p *parser) profile(idx int, raw json.RawMessage) (*profile.Profile, error) {
	record := fmt.Sprintf("profiles[%d]", idx)

	var rp rawProfile
	if err := decode(raw, &rp); err != nil {
		return nil, p.skip(record, ReasonMalformed, raw, err)
	}

	id := *rp.ID
	if first, ok := p.seen[id]; ok {
		err := fmt.Errorf("%w: id %d already used by profiles[%d]", ErrMalformedRecord, id, first)
		return nil, p.skip(record, ReasonDuplicateProfile, raw, err)
	}

	answers := make([]profile.Answer, 0, len(rp.Answers))
	questions := make(map[int]struct{}, len(rp.Answers))
	for j, rawAns := range rp.Answers {
		ansRecord := fmt.Sprintf("%s.answers[%d]", record, j)

		var ra rawAnswer
		if err := decode(rawAns, &ra); err != nil {
			if err := p.skip(ansRecord, ReasonMalformed, rawAns, err); err != nil {
				return nil, err
			}
			continue
		}

		ans, err := profile.NewAnswer(*ra.QuestionID, *ra.Answer, ra.AcceptableAnswers, *ra.Importance)
		if err != nil {
			if err := p.skip(ansRecord, ReasonUnknownImportance, rawAns, err); err != nil {
				return nil, err
			}
			continue
		}

		if _, dup := questions[ans.QuestionID()]; dup {
			err := profile.NewValidationError(fmt.Sprintf("profile %d", id), profile.ErrDuplicateQuestion,
				fmt.Sprintf("question %d answered more than once", ans.QuestionID()))
			if err := p.skip(ansRecord, ReasonDuplicateQuestion, rawAns, err); err != nil {
				return nil, err
			}
			continue
		}
		questions[ans.QuestionID()] = struct{}{}
		answers = append(answers, ans)
	}

	prof, err := profile.New(id, answers...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", record, err)
	}

	p.seen[id] = idx
	return prof, nil
}

// decode unmarshals raw into v and runs struct validation.
func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	if err := validate.Struct(v); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			fields := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: missing %v", ErrMalformedRecord, fields)
		}
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	return nil
}
