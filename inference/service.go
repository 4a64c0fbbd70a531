package inference

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"phenomap/ml"
	"phenomap/phenotype"
	"phenomap/schema"
)

// Assignment is the immutable outcome of one form submission.
type Assignment struct {
	ID          string        `json:"id"`
	Schema      string        `json:"schema"`
	Record      schema.Record `json:"-"`
	Result      Result        `json:"result"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Inputs returns the collected values keyed by field name.
func (a *Assignment) Inputs() map[string]float64 {
	return a.Record.Map()
}

// Journal records assignments. Implementations must not block the
// response on failure; Service only logs journal errors.
type Journal interface {
	SaveAssignment(ctx context.Context, a *Assignment) error
}

// Service runs collect, infer and describe for one schema.
type Service struct {
	schema  *schema.Schema
	model   ml.Classifier
	journal Journal
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(s *schema.Schema, model ml.Classifier, opts ...Option) *Service {
	svc := &Service{
		schema: s,
		model:  model,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Schema() *schema.Schema { return s.schema }

// Assign collects values into a record and assigns it.
func (s *Service) Assign(ctx context.Context, values map[string]string) (*Assignment, error) {
	record, err := s.schema.Collect(values)
	if err != nil {
		return nil, err
	}
	return s.AssignRecord(ctx, record)
}

func (s *Service) AssignRecord(ctx context.Context, record schema.Record) (*Assignment, error) {
	res, err := Infer(ctx, record, s.model)
	if err != nil {
		s.logger.Error("inference failed", zap.String("schema", s.schema.Name), zap.Error(err))
		return nil, err
	}
	a := &Assignment{
		ID:        uuid.NewString(),
		Schema:    s.schema.Name,
		Record:    record,
		Result:    res,
		CreatedAt: s.now().UTC(),
	}
	if s.schema.Descriptions {
		a.Description = phenotype.Describe(res.Label)
	}
	s.logger.Info("assignment",
		zap.String("id", a.ID),
		zap.String("schema", a.Schema),
		zap.Int("label", res.Label),
		zap.Float64("confidence", res.Confidence))

	if s.journal != nil {
		if err := s.journal.SaveAssignment(ctx, a); err != nil {
			s.logger.Warn("journal write failed", zap.String("id", a.ID), zap.Error(err))
		}
	}
	return a, nil
}
