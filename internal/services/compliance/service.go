// Package compliance is the check orchestrator: it validates input, runs the
// rule engine and records every completed check in the audit log.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"policyguard/internal/domain"
	"policyguard/internal/engine"
	"policyguard/internal/ports"
	"policyguard/internal/rules"
	"policyguard/internal/telemetry"
)

// DefaultMaxTextLength bounds submitted text, in runes.
const DefaultMaxTextLength = 8000

type Service struct {
	rules   *rules.Set
	log     ports.AuditLog
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	now     func() time.Time
	maxText int
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

func WithMetrics(m *telemetry.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithMaxTextLength overrides DefaultMaxTextLength. Values below 1 disable
// the limit.
func WithMaxTextLength(n int) Option { return func(s *Service) { s.maxText = n } }

func New(set *rules.Set, log ports.AuditLog, opts ...Option) *Service {
	s := &Service{
		rules:   set,
		log:     log,
		logger:  slog.Default(),
		tracer:  otel.Tracer("policyguard/compliance"),
		now:     time.Now,
		maxText: DefaultMaxTextLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "compliance")
	return s
}

type checkInput struct {
	department *string
	policyType *domain.PolicyType
}

func (s *Service) validate(req domain.CheckRequest) (checkInput, error) {
	var in checkInput
	if strings.TrimSpace(req.Text) == "" {
		return in, &domain.ValidationError{Field: "text", Reason: "text must not be empty"}
	}
	if s.maxText > 0 {
		if n := utf8.RuneCountInString(req.Text); n > s.maxText {
			return in, &domain.ValidationError{Field: "text", Reason: fmt.Sprintf("text is %d characters, limit is %d", n, s.maxText)}
		}
	}
	if req.Department != nil {
		in.department = domain.StringPtr(*req.Department)
	}
	if req.PolicyType != nil && strings.TrimSpace(*req.PolicyType) != "" {
		pt, err := domain.ParsePolicyType(strings.TrimSpace(*req.PolicyType))
		if err != nil {
			return in, err
		}
		in.policyType = &pt
	}
	return in, nil
}

// CheckCompliance evaluates req against the rule set and appends exactly one
// audit entry on success. Validation failures return a
// *domain.ValidationError and record nothing.
func (s *Service) CheckCompliance(ctx context.Context, req domain.CheckRequest) (domain.CheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.check")
	defer span.End()
	start := time.Now()

	in, err := s.validate(req)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			s.metrics.ObserveRejected(ve.Field)
		}
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("check rejected", "error", err)
		return domain.CheckResult{}, err
	}

	scope := rules.Scope{}
	if in.department != nil {
		scope.Department = *in.department
	}
	if in.policyType != nil {
		scope.PolicyType = string(*in.policyType)
	}
	result, matches := engine.Check(req.Text, s.rules, scope)

	entry := domain.LogEntry{
		CreatedAt:     s.now().UTC(),
		Text:          req.Text,
		Department:    in.department,
		PolicyType:    in.policyType,
		OverallRisk:   result.OverallRisk,
		Issues:        result.Issues,
		SuggestedText: result.SuggestedText,
	}
	id, err := s.log.Append(ctx, entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit append failed")
		return domain.CheckResult{}, fmt.Errorf("record compliance check: %w", err)
	}

	ruleIDs := make([]string, len(matches))
	for i, m := range matches {
		ruleIDs[i] = m.Rule.ID
		s.logger.Debug("rule matched", "log_id", id, "rule", m.Rule.ID, "offset", m.Offset, "excerpt_len", len(m.Excerpt))
	}
	s.metrics.ObserveCheck(result.OverallRisk, ruleIDs, time.Since(start))
	span.SetAttributes(
		attribute.Int64("policyguard.log_id", id),
		attribute.String("policyguard.risk", result.OverallRisk.String()),
		attribute.StringSlice("policyguard.rules", ruleIDs),
	)
	s.logger.Info("compliance check recorded",
		"log_id", id,
		"risk", result.OverallRisk.String(),
		"issues", len(result.Issues),
		"rules", ruleIDs,
	)
	return result, nil
}

// ListLogs returns audit entries, most recent first.
func (s *Service) ListLogs(ctx context.Context, filter domain.LogFilter) ([]domain.LogEntry, error) {
	if filter.Limit < 0 {
		return nil, &domain.ValidationError{Field: "limit", Reason: "limit must not be negative"}
	}
	return s.log.List(ctx, filter)
}

// GetLog returns one audit entry or a *domain.NotFoundError.
func (s *Service) GetLog(ctx context.Context, id int64) (domain.LogEntry, error) {
	return s.log.Get(ctx, id)
}

// Rules returns the active rule catalog in evaluation order.
func (s *Service) Rules() []*rules.Rule { return s.rules.Rules() }
