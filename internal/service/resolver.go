package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/linklet/linklet/internal/model"
	"github.com/linklet/linklet/internal/observability"
	"github.com/linklet/linklet/internal/repository"
)

// ClickRecorder persists detailed click events off the response path.
type ClickRecorder interface {
	Insert(ctx context.Context, click *model.ClickEvent) error
}

// EventPublisher fans a successful click out to downstream consumers
// (webhook dispatcher, analytics worker).
type EventPublisher interface {
	PublishLinkClicked(ctx context.Context, link *model.Link, click *model.ClickEvent) error
}

// ResolveRequest carries everything the resolver reads from an
// inbound GET /{code}.
type ResolveRequest struct {
	Code      string
	Password  string
	UTM       model.UTMParams
	IPAddress string
	UserAgent string
	Referrer  string
}

// ResolverInterface defines the redirect resolution contract.
type ResolverInterface interface {
	Resolve(ctx context.Context, req *ResolveRequest) (string, error)
}

// Resolver orchestrates the redirect hot path: lookup, password gate,
// click bookkeeping and UTM merge. It returns the final destination
// URL on success and a sentinel error otherwise; only ErrLinkNotFound
// and unexpected errors ever change the user-visible status code,
// everything else is absorbed here.
type Resolver struct {
	store       repository.LinkStore
	clicks      ClickRecorder
	publisher   EventPublisher // nil disables fan-out
	gate        PasswordGate
	logger      *slog.Logger
	metrics     *observability.Metrics
	taskTimeout time.Duration
}

// NewResolver creates a redirect resolver. publisher may be nil.
func NewResolver(store repository.LinkStore, clicks ClickRecorder, publisher EventPublisher,
	gate PasswordGate, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		store:       store,
		clicks:      clicks,
		publisher:   publisher,
		gate:        gate,
		logger:      logger,
		metrics:     metrics,
		taskTimeout: 5 * time.Second,
	}
}

// Resolve runs the resolution state machine for one request.
//
// Side effect ordering is deliberate: the count increment is awaited
// before returning so the counter reflects the click immediately,
// while the detailed event and the fan-out publish are dispatched
// fire-and-forget and may complete after the response is gone.
func (r *Resolver) Resolve(ctx context.Context, req *ResolveRequest) (string, error) {
	link, err := r.store.Lookup(ctx, req.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.outcome(ctx, "not_found")
			return "", ErrLinkNotFound
		}
		r.outcome(ctx, "error")
		return "", err
	}

	if link.Protected() {
		if req.Password == "" {
			r.outcome(ctx, "password_required")
			return "", ErrPasswordRequired
		}
		if !r.gate.Verify(req.Password, *link.PasswordHash) {
			r.outcome(ctx, "password_invalid")
			return "", ErrPasswordInvalid
		}
	}

	// Awaited, but failure-tolerant: a dead counter must not cost the
	// user their redirect.
	if err := r.store.IncrementClickCount(ctx, link.ID); err != nil {
		r.sideEffectFailure(ctx, "increment")
		r.logger.WarnContext(ctx, "click count increment failed",
			slog.String("short_code", link.ShortCode),
			slog.String("error", err.Error()))
	} else {
		link.ClickCount++
	}

	merged := MergeUTM(req.UTM, link.UTM)

	click := &model.ClickEvent{
		LinkID:    link.ID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
		UTM:       merged,
		ClickedAt: time.Now(),
	}

	// Insert's RETURNING scan writes server-assigned fields back into
	// click, so the publisher gets its own copy taken before either
	// goroutine starts; the two must never share a struct.
	published := *click
	r.dispatch("record", func(ctx context.Context) error {
		return r.clicks.Insert(ctx, click)
	})
	if r.publisher != nil {
		r.dispatch("publish", func(ctx context.Context) error {
			return r.publisher.PublishLinkClicked(ctx, link, &published)
		})
	}

	r.outcome(ctx, "success")
	return ApplyUTM(link.OriginalURL, merged), nil
}

// dispatch runs fn detached from the request: its context survives
// client disconnects, and any error or panic is swallowed into the
// log so it can never reach the response path.
func (r *Resolver) dispatch(stage string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("background task panicked",
					slog.String("stage", stage),
					slog.Any("panic", p))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.taskTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			r.sideEffectFailure(ctx, stage)
			r.logger.Warn("background task failed",
				slog.String("stage", stage),
				slog.String("error", err.Error()))
		}
	}()
}

func (r *Resolver) outcome(ctx context.Context, outcome string) {
	r.metrics.Resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (r *Resolver) sideEffectFailure(ctx context.Context, stage string) {
	r.metrics.SideEffectFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// Ensure Resolver implements ResolverInterface at compile time
var _ ResolverInterface = (*Resolver)(nil)
