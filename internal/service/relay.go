package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	cfotel "github.com/Strob0t/buildrelay/internal/adapter/otel"
	"github.com/Strob0t/buildrelay/internal/config"
	"github.com/Strob0t/buildrelay/internal/domain"
	"github.com/Strob0t/buildrelay/internal/domain/webhook"
	"github.com/Strob0t/buildrelay/internal/domain/workitem"
	"github.com/Strob0t/buildrelay/internal/logger"
	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
	"github.com/Strob0t/buildrelay/internal/port/notifier"
	"github.com/Strob0t/buildrelay/internal/port/workspace"
)

// State is the terminal state of one relay invocation.
type State string

const (
	StateResponded State = "responded"
	StateSkipped   State = "skipped"
	StateRejected  State = "rejected"
	StateFailed    State = "failed"
)

// Outcome reports what happened to one inbound event.
type Outcome struct {
	State  State       `json:"state"`
	Mode   config.Mode `json:"mode"`
	Reason string      `json:"reason,omitempty"`
	// Explicit marks a skip the source asked for (e.g. an ignored pull
	// request action) as opposed to a filter mismatch.
	Explicit bool                  `json:"-"`
	Records  []workitem.LinkResult `json:"records"`
}

// reviewActions are the pull request actions the linker reacts to.
var reviewActions = map[string]bool{
	"opened":           true,
	"edited":           true,
	"reopened":         true,
	"ready_for_review": true,
}

// Build-side and review-side labels written in front of back-references.
const (
	buildLabel  = "Build:"
	reviewLabel = "Pull request:"
)

// RelayDeps are the outbound collaborators of a RelayService. Any of them
// may be nil; a nil collaborator required by the mode surfaces as a
// configuration error per request.
type RelayDeps struct {
	Workspace workspace.Workspace
	Chat      notifier.Notifier
	Git       gitprovider.Provider
	Metrics   *cfotel.Metrics
}

// RelayService verifies, filters, links and dispatches inbound events.
// It holds no per-request state and is safe for concurrent use.
type RelayService struct {
	cfg        *config.Config
	extractor  *workitem.Extractor
	resolver   *Resolver
	annotator  *Annotator // nil when no workspace is configured
	dispatcher *Dispatcher
	metrics    *cfotel.Metrics
}

// NewRelayService wires the orchestrator from an immutable config.
func NewRelayService(cfg *config.Config, deps RelayDeps) *RelayService {
	s := &RelayService{
		cfg:        cfg,
		extractor:  workitem.NewExtractor(cfg.Relay.IdentifierPrefix, cfg.Workspace.Domain),
		resolver:   NewResolver(deps.Workspace, cfg.Workspace.PageBaseURL, cfg.HTTP.Timeout, cfg.Relay.Concurrency),
		dispatcher: NewDispatcher(cfg, deps.Chat, deps.Git),
		metrics:    deps.Metrics,
	}
	if deps.Workspace != nil {
		s.annotator = NewAnnotator(deps.Workspace, cfg.Workspace.PageSize, cfg.HTTP.Timeout)
	}
	return s
}

// Extractor exposes the configured identifier extractor.
func (s *RelayService) Extractor() *workitem.Extractor { return s.extractor }

// Handle runs one inbound event through the relay. The returned Outcome is
// never nil. The error wraps domain.ErrAuthentication,
// domain.ErrConfiguration or domain.ErrDispatch.
func (s *RelayService) Handle(ctx context.Context, ev webhook.InboundEvent) (*Outcome, error) {
	start := time.Now()
	mode := s.cfg.Relay.Mode
	ctx, span := cfotel.StartRelaySpan(ctx, string(mode))
	defer span.End()

	if s.metrics != nil {
		s.metrics.EventsReceived.Add(ctx, 1, s.modeAttr())
	}

	out, err := s.handle(ctx, ev)
	out.Mode = mode
	if out.Records == nil {
		out.Records = []workitem.LinkResult{}
	}

	span.SetAttributes(attribute.String("relay.state", string(out.State)), attribute.Int("relay.records", len(out.Records)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.metrics != nil {
		s.metrics.HandleDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("relay.mode", string(mode)),
			attribute.String("relay.state", string(out.State)),
		))
	}
	return out, err
}

func (s *RelayService) handle(ctx context.Context, ev webhook.InboundEvent) (*Outcome, error) {
	log := logger.FromContext(ctx)

	if s.cfg.Relay.Secret != "" {
		header := ev.Header(s.cfg.EffectiveSignatureHeader())
		if !webhook.Verify(ev.RawBody, s.cfg.Relay.Secret, header) {
			log.Warn("webhook signature rejected", "header", s.cfg.EffectiveSignatureHeader(), "present", header != "")
			if s.metrics != nil {
				s.metrics.EventsRejected.Add(ctx, 1, s.modeAttr())
			}
			return &Outcome{State: StateRejected, Reason: "invalid signature"}, domain.ErrAuthentication
		}
	}

	if missing := s.cfg.MissingDestination(); missing != "" {
		return &Outcome{State: StateFailed, Reason: missing + " is not set"},
			fmt.Errorf("%w: %s is not set", domain.ErrConfiguration, missing)
	}
	if !s.dispatcher.Ready() {
		return &Outcome{State: StateFailed, Reason: "no destination for mode"},
			fmt.Errorf("%w: no destination for mode %q", domain.ErrConfiguration, s.cfg.Relay.Mode)
	}

	if s.cfg.Relay.Mode == config.ModeComment {
		return s.handleReview(ctx, webhook.DecodeReview(ev.RawBody))
	}
	return s.handleBuild(ctx, webhook.DecodeBuild(ev.RawBody))
}

func (s *RelayService) handleBuild(ctx context.Context, n webhook.BuildNotification) (*Outcome, error) {
	log := logger.FromContext(ctx)

	if n.Profile == "" {
		n.Profile = s.cfg.Relay.DefaultProfile
	}
	if filter := s.cfg.Relay.ProfileFilter; filter != "" && n.Profile != filter {
		log.Info("build skipped: profile mismatch", "profile", n.Profile, "filter", filter)
		if s.metrics != nil {
			s.metrics.EventsSkipped.Add(ctx, 1, s.modeAttr())
		}
		return &Outcome{
			State:  StateSkipped,
			Reason: fmt.Sprintf("profile %q does not match %q", n.Profile, filter),
		}, nil
	}

	ids := s.extractor.Extract(n.CommitMessage, n.BuildURL, n.GitRef)
	records := s.resolve(ctx, ids)
	results := s.annotateAll(ctx, records, n.BuildURL, buildLabel)

	dctx, span := cfotel.StartStageSpan(ctx, "dispatch", attribute.String("relay.mode", string(s.cfg.Relay.Mode)))
	err := s.dispatcher.DispatchBuild(dctx, n, records)
	span.End()
	if err != nil {
		return s.dispatchFailed(ctx, results, err)
	}

	for i := range results {
		results[i].Notified = true
	}
	if s.metrics != nil {
		s.metrics.Dispatched.Add(ctx, 1, s.modeAttr())
	}
	log.Info("build relayed", "status", n.Status, "profile", n.Profile, "records", len(records))
	return &Outcome{State: StateResponded, Records: results}, nil
}

func (s *RelayService) handleReview(ctx context.Context, ev webhook.ReviewEvent) (*Outcome, error) {
	log := logger.FromContext(ctx)

	if !reviewActions[ev.Action] {
		log.Debug("pull request action ignored", "action", ev.Action)
		if s.metrics != nil {
			s.metrics.EventsSkipped.Add(ctx, 1, s.modeAttr())
		}
		return &Outcome{
			State:    StateSkipped,
			Reason:   fmt.Sprintf("action %q ignored", ev.Action),
			Explicit: true,
		}, nil
	}

	ids := s.extractor.Extract(ev.Title, ev.Body, ev.Branch)
	records := s.resolve(ctx, ids)
	results := s.annotateAll(ctx, records, ev.HTMLURL, reviewLabel)

	dctx, span := cfotel.StartStageSpan(ctx, "dispatch", attribute.String("relay.mode", string(s.cfg.Relay.Mode)))
	sent, err := s.dispatcher.DispatchReview(dctx, ev, records)
	span.End()
	if err != nil {
		return s.dispatchFailed(ctx, results, err)
	}

	if sent {
		for i := range results {
			results[i].Notified = true
		}
		if s.metrics != nil {
			s.metrics.Dispatched.Add(ctx, 1, s.modeAttr())
		}
	}
	log.Info("pull request linked", "number", ev.Number, "records", len(records), "commented", sent)
	return &Outcome{State: StateResponded, Records: results}, nil
}

func (s *RelayService) dispatchFailed(ctx context.Context, results []workitem.LinkResult, err error) (*Outcome, error) {
	logger.FromContext(ctx).Error("dispatch failed", "mode", s.cfg.Relay.Mode, "error", err)
	if s.metrics != nil {
		s.metrics.DispatchFailures.Add(ctx, 1, s.modeAttr())
	}
	return &Outcome{State: StateFailed, Reason: "dispatch failed", Records: results}, err
}

func (s *RelayService) resolve(ctx context.Context, ids workitem.Identifiers) []workitem.Record {
	if ids.Empty() {
		return []workitem.Record{}
	}
	ctx, span := cfotel.StartStageSpan(ctx, "resolve",
		attribute.Int("refs.short_codes", len(ids.ShortCodes)),
		attribute.Int("refs.direct_links", len(ids.DirectLinks)),
	)
	defer span.End()

	records := s.resolver.Resolve(ctx, ids.References())
	if s.metrics != nil {
		s.metrics.RecordsResolved.Add(ctx, int64(len(records)), s.modeAttr())
	}
	return records
}

// annotateAll annotates every record concurrently. Failures and panics are
// downgraded to per-record warnings.
func (s *RelayService) annotateAll(ctx context.Context, records []workitem.Record, backRef, label string) []workitem.LinkResult {
	results := make([]workitem.LinkResult, len(records))
	for i, r := range records {
		results[i].Record = r
	}
	if s.annotator == nil || backRef == "" || len(records) == 0 {
		return results
	}

	ctx, span := cfotel.StartStageSpan(ctx, "annotate", attribute.Int("records", len(records)))
	defer span.End()

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Relay.Concurrency)
	for i := range results {
		i := i
		g.Go(func() error {
			results[i].Annotated, results[i].Warning = s.annotateOne(ctx, results[i].Record, backRef, label)
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		var written, warned int64
		for _, r := range results {
			if r.Annotated {
				written++
			}
			if r.Warning != "" {
				warned++
			}
		}
		s.metrics.AnnotationsWritten.Add(ctx, written, s.modeAttr())
		s.metrics.AnnotationsWarned.Add(ctx, warned, s.modeAttr())
	}
	return results
}

func (s *RelayService) annotateOne(ctx context.Context, rec workitem.Record, backRef, label string) (written bool, warning string) {
	log := logger.FromContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			written = false
			warning = fmt.Sprintf("annotation panicked: %v", p)
			log.Warn("annotation panicked", "record", rec.ID, "panic", p)
		}
	}()

	ok, err := s.annotator.Annotate(ctx, rec, backRef, label)
	if err != nil {
		log.Warn("annotation failed", "record", rec.ID, "error", err)
		return false, err.Error()
	}
	return ok, ""
}

func (s *RelayService) modeAttr() metric.AddOption {
	return metric.WithAttributes(attribute.String("relay.mode", string(s.cfg.Relay.Mode)))
}
