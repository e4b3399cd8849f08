package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kapu/lyricsense-go/internal/constants"
	"github.com/kapu/lyricsense-go/internal/domain"
	"github.com/kapu/lyricsense-go/internal/util"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

// Enricher produces one kind of enrichment and stores it on the shared result.
// Apply is called with the result locked, so it must not block.
type Enricher interface {
	Kind() domain.EnrichmentKind
	Run(ctx context.Context, req domain.EnrichmentRequest) (apply func(*domain.EnrichmentResult), err error)
}

// Registry stores enrichers keyed by kind.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.EnrichmentKind]Enricher
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.EnrichmentKind]Enricher)}
}

// Register adds an enricher; kinds are stored lower-cased.
func (r *Registry) Register(handler Enricher) {
	if handler == nil {
		return
	}
	kind := domain.EnrichmentKind(util.Normalize(handler.Kind().String()))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

func (r *Registry) Get(kind domain.EnrichmentKind) (Enricher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[domain.EnrichmentKind(util.Normalize(kind.String()))]
	return handler, ok
}

func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func newDefaultRegistry(o *Orchestrator) *Registry {
	r := NewRegistry()
	r.Register(translateEnricher{o: o})
	r.Register(romanizeEnricher{o: o})
	r.Register(explainEnricher{o: o})
	return r
}

// Enrich runs every requested kind concurrently. Each kind fails on its own: its
// error lands in result.Errors while the other kinds are still returned.
func (o *Orchestrator) Enrich(ctx context.Context, req domain.EnrichmentRequest) (result domain.EnrichmentResult, err error) {
	defer func(start time.Time) { o.observe("enrich", start, err) }(time.Now())

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return domain.EnrichmentResult{}, errors.NewValidationError("text is required", "text", req.Text)
	}

	kinds := req.ResolvedKinds()
	handlers := make([]Enricher, 0, len(kinds))
	for _, kind := range kinds {
		handler, ok := o.registry.Get(kind)
		if !ok {
			return domain.EnrichmentResult{}, errors.NewValidationError(fmt.Sprintf("unknown enrichment kind %q", kind), "kinds", kind.String())
		}
		handlers = append(handlers, handler)
	}

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(constants.DiscoveryConfig.EnrichConcurrency)
	for _, handler := range handlers {
		p.Go(func() {
			apply, runErr := handler.Run(ctx, req)

			mu.Lock()
			defer mu.Unlock()
			if runErr != nil {
				if result.Errors == nil {
					result.Errors = make(map[domain.EnrichmentKind]domain.ErrorEnvelope)
				}
				result.Errors[handler.Kind()] = Envelope(runErr)
				return
			}
			apply(&result)
		})
	}
	p.Wait()

	return result, nil
}

// Envelope converts an operation error to its wire shape. Errors that are neither
// provider nor validation errors are reported as unavailable.
func Envelope(err error) domain.ErrorEnvelope {
	if pe, ok := errors.AsProviderError(err); ok {
		return domain.ErrorEnvelope{Error: pe.Kind.String(), Detail: pe.Detail, Provider: pe.Provider}
	}
	if ve, ok := errors.AsValidationError(err); ok {
		return domain.ErrorEnvelope{Error: "invalid_request", Detail: ve.Message}
	}
	return domain.ErrorEnvelope{Error: errors.KindUnavailable.String(), Detail: err.Error()}
}

type translateEnricher struct{ o *Orchestrator }

func (translateEnricher) Kind() domain.EnrichmentKind { return domain.EnrichmentTranslate }

func (e translateEnricher) Run(ctx context.Context, req domain.EnrichmentRequest) (func(*domain.EnrichmentResult), error) {
	translation, err := e.o.Translate(ctx, req.Text, req.TargetLang)
	if err != nil {
		return nil, err
	}
	return func(r *domain.EnrichmentResult) { r.Translation = &translation }, nil
}

type romanizeEnricher struct{ o *Orchestrator }

func (romanizeEnricher) Kind() domain.EnrichmentKind { return domain.EnrichmentRomanize }

func (e romanizeEnricher) Run(_ context.Context, req domain.EnrichmentRequest) (func(*domain.EnrichmentResult), error) {
	romanization, err := e.o.Romanize(req.Text)
	if err != nil {
		return nil, err
	}
	return func(r *domain.EnrichmentResult) { r.Romanization = &romanization }, nil
}

type explainEnricher struct{ o *Orchestrator }

func (explainEnricher) Kind() domain.EnrichmentKind { return domain.EnrichmentExplain }

func (e explainEnricher) Run(ctx context.Context, req domain.EnrichmentRequest) (func(*domain.EnrichmentResult), error) {
	explanation, err := e.o.ExplainWord(ctx, req.Text, req.Context)
	if err != nil {
		return nil, err
	}
	return func(r *domain.EnrichmentResult) { r.Explanation = &explanation }, nil
}
