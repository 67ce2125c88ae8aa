// Package pipeline sequences generation passes over a cached session and
// reports progress as an ordered event stream.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ai-postgen-be/internal/pkg/logger"
	"ai-postgen-be/internal/repository/contract"
	"ai-postgen-be/pkg/apperror"
	"ai-postgen-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "PIPELINE"

// DefaultPassTimeout bounds a single pass when no timeout is configured.
const DefaultPassTimeout = 90 * time.Second

type Option func(*Pipeline)

func WithLogger(l logger.ILogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func WithProductLookup(l ProductLookup) Option {
	return func(p *Pipeline) { p.products = l }
}

func WithCompletionHook(h CompletionHook) Option {
	return func(p *Pipeline) { p.hooks = append(p.hooks, h) }
}

func WithPassTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.passTimeout = d
		}
	}
}

// Pipeline runs an ordered list of passes against a session.
type Pipeline struct {
	passes      []Pass
	sessions    contract.SessionRepository
	products    ProductLookup
	hooks       []CompletionHook
	observer    Observer
	logger      logger.ILogger
	tracer      trace.Tracer
	passTimeout time.Duration
}

// New sorts passes into the declared pass order. Unknown or duplicate
// passes are rejected.
func New(sessions contract.SessionRepository, passes []Pass, opts ...Option) (*Pipeline, error) {
	seen := make(map[store.PassName]bool, len(passes))
	for _, pass := range passes {
		name := pass.Name()
		if !name.Valid() {
			return nil, fmt.Errorf("unknown pass %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("pass %q registered twice", name)
		}
		seen[name] = true
	}

	ordered := append([]Pass(nil), passes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name().Index() < ordered[j].Name().Index()
	})

	p := &Pipeline{
		passes:      ordered,
		sessions:    sessions,
		observer:    nopObserver{},
		logger:      logger.NewNop(),
		tracer:      otel.Tracer("ai-postgen-be/pipeline"),
		passTimeout: DefaultPassTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Passes lists the configured pass names in run order.
func (p *Pipeline) Passes() []store.PassName {
	names := make([]store.PassName, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name()
	}
	return names
}

// GenerateStream validates req, creates or resumes its session and runs the
// remaining passes in the background. Validation and cache errors are
// returned directly; everything after that is reported on the channel,
// which is closed when the run ends. The caller must drain the channel or
// cancel ctx.
func (p *Pipeline) GenerateStream(ctx context.Context, req Request) (<-chan Event, string, error) {
	session, err := p.open(ctx, &req)
	if err != nil {
		return nil, "", err
	}

	events := make(chan Event)
	go func() {
		defer close(events)

		emit := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if _, err := p.run(ctx, &req, session, emit); err != nil && ctx.Err() == nil {
			emit(errorEvent(err))
		}
	}()

	return events, session.SessionID, nil
}

// Generate runs the pipeline to completion and returns the final session.
// onEvent may be nil.
func (p *Pipeline) Generate(ctx context.Context, req Request, onEvent func(Event)) (*store.GenerationSession, error) {
	session, err := p.open(ctx, &req)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, &req, session, func(ev Event) bool {
		if onEvent != nil {
			onEvent(ev)
		}
		return ctx.Err() == nil
	})
}

func (p *Pipeline) open(ctx context.Context, req *Request) (*store.GenerationSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := p.sessions.GetOrCreate(ctx, req.SessionID, &store.SessionMetadata{
		Idea:      req.Idea,
		ProductID: req.ProductID,
	})
	if err != nil {
		return nil, err
	}
	req.SessionID = session.SessionID

	// A resumed session remembers what it was started for.
	if req.Idea == "" {
		req.Idea = session.Metadata.Idea
	}
	if req.ProductID == "" {
		req.ProductID = session.Metadata.ProductID
	}
	return session, nil
}

func (p *Pipeline) run(ctx context.Context, req *Request, session *store.GenerationSession, emit func(Event) bool) (*store.GenerationSession, error) {
	if err := p.resolveProduct(ctx, req); err != nil {
		return session, err
	}

	resumeAfter := -1
	if last, ok := session.LastCompleted(); ok {
		resumeAfter = last.Index()
		p.logger.Info(module, "Resuming session", map[string]interface{}{
			"session_id": session.SessionID,
			"after_pass": string(last),
		})
	}

	ran := 0
	for _, pass := range p.passes {
		name := pass.Name()
		if name.Index() <= resumeAfter {
			continue
		}
		if err := ctx.Err(); err != nil {
			return session, err
		}

		view := session.ViewBefore(name)
		if !pass.Ready(req, view) {
			p.logger.Debug(module, "Skipping pass", map[string]interface{}{
				"session_id": session.SessionID,
				"pass":       string(name),
			})
			continue
		}

		if !emit(passStart(name)) {
			return session, ctx.Err()
		}

		result, err := p.runPass(ctx, pass, req, view, emit)
		if err != nil {
			return session, err
		}

		updated, err := p.commit(ctx, session, name, result)
		if err != nil {
			return session, err
		}
		session = updated
		ran++

		if !emit(passComplete(result)) {
			return session, ctx.Err()
		}
	}

	if ran > 0 {
		p.complete(ctx, *req, session)
	}
	return session, nil
}

func (p *Pipeline) runPass(ctx context.Context, pass Pass, req *Request, view *store.GenerationSession, emit func(Event) bool) (store.PassResult, error) {
	name := pass.Name()
	passCtx, cancel := context.WithTimeout(ctx, p.passTimeout)
	defer cancel()

	passCtx, span := p.tracer.Start(passCtx, "postgen.pass."+string(name), trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.Bool("pass.streaming", pass.Streaming()),
	))
	defer span.End()

	p.observer.PassStarted(name)
	p.logger.Info(module, "Pass started", map[string]interface{}{
		"session_id": req.SessionID,
		"pass":       string(name),
	})
	started := time.Now()

	var chunks int
	forward := func(text string) {
		if text == "" || !pass.Streaming() {
			return
		}
		chunks++
		if !emit(passChunk(name, text)) {
			cancel()
		}
	}

	result, err := pass.Run(passCtx, req, view, forward)
	if err == nil {
		switch {
		case result == nil:
			err = fmt.Errorf("pass returned no result")
		case result.Pass() != name:
			err = fmt.Errorf("pass returned result for %s", result.Pass())
		case passCtx.Err() != nil:
			// the consumer left or the deadline hit while the last chunk was in flight
			err = passCtx.Err()
		}
	}
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperror.External("llm", err)
		}
		passErr := &apperror.PassError{Pass: string(name), SessionID: req.SessionID, Cause: err}
		span.RecordError(passErr)
		span.SetStatus(codes.Error, passErr.Error())
		p.observer.PassFailed(name, elapsed, err)
		p.logger.Error(module, "Pass failed", map[string]interface{}{
			"session_id": req.SessionID,
			"pass":       string(name),
			"elapsed_ms": elapsed.Milliseconds(),
			"error":      err,
		})
		return nil, passErr
	}

	span.SetAttributes(attribute.Int("pass.chunks", chunks))
	p.observer.PassCompleted(name, elapsed)
	p.logger.Info(module, "Pass completed", map[string]interface{}{
		"session_id": req.SessionID,
		"pass":       string(name),
		"elapsed_ms": elapsed.Milliseconds(),
		"chunks":     chunks,
	})
	return result, nil
}

// commit writes exactly the pass's own field. A session that expired
// between passes is started fresh under the same id with the results this
// run already holds.
func (p *Pipeline) commit(ctx context.Context, session *store.GenerationSession, name store.PassName, result store.PassResult) (*store.GenerationSession, error) {
	sessionID := session.SessionID
	update, err := store.UpdateFor(result)
	if err != nil {
		return nil, &apperror.PassError{Pass: string(name), SessionID: sessionID, Cause: err}
	}

	updated, err := p.sessions.Update(ctx, sessionID, update)
	if err == nil && updated == nil {
		updated, err = p.recreate(ctx, session, update)
	}
	if err != nil {
		return nil, &apperror.PassError{Pass: string(name), SessionID: sessionID, Cause: err}
	}
	if updated == nil {
		return nil, &apperror.PassError{Pass: string(name), SessionID: sessionID, Cause: apperror.ErrSessionNotFound}
	}
	return updated, nil
}

func (p *Pipeline) recreate(ctx context.Context, prior *store.GenerationSession, update store.SessionUpdate) (*store.GenerationSession, error) {
	p.logger.Warn(module, "Session expired mid-run, starting it fresh", map[string]interface{}{
		"session_id": prior.SessionID,
	})

	if _, err := p.sessions.GetOrCreate(ctx, prior.SessionID, &store.SessionMetadata{
		Idea:      prior.Metadata.Idea,
		ProductID: prior.Metadata.ProductID,
	}); err != nil {
		return nil, err
	}

	carried := prior.Clone()
	carried.Apply(update)
	return p.sessions.Update(ctx, prior.SessionID, carried.Snapshot())
}

func (p *Pipeline) resolveProduct(ctx context.Context, req *Request) error {
	if req.Product != nil || req.ProductID == "" || p.products == nil {
		return nil
	}
	product, err := p.products.Lookup(ctx, req.ProductID)
	if err != nil {
		return apperror.External("product_catalog", err)
	}
	if product == nil {
		p.logger.Warn(module, "Product not found, generating without catalog details", map[string]interface{}{
			"session_id": req.SessionID,
			"product_id": req.ProductID,
		})
		return nil
	}
	req.Product = product
	return nil
}

func (p *Pipeline) complete(ctx context.Context, req Request, session *store.GenerationSession) {
	for _, hook := range p.hooks {
		if err := hook.GenerationCompleted(ctx, req, session.Clone()); err != nil {
			p.logger.Warn(module, "Completion hook failed", map[string]interface{}{
				"session_id": session.SessionID,
				"error":      err,
			})
		}
	}
}
