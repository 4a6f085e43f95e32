// Package pipeline wires the concierge state machine: start, one handler
// branch picked by the intent router, then final.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wine-concierge-be/internal/pkg/logger"
	"wine-concierge-be/pkg/ai/graph"
	"wine-concierge-be/pkg/ai/router"
	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/metrics"
	"wine-concierge-be/pkg/tools"
	"wine-concierge-be/pkg/vectorindex"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	NodeStart = "start"
	NodeFinal = "final"
)

type Classifier interface {
	Classify(query string) router.Branch
}

type Retriever interface {
	Ready() bool
	Retrieve(ctx context.Context, query string) ([]vectorindex.Match, error)
}

type Answerer interface {
	AnswerWithContext(ctx context.Context, query string, matches []vectorindex.Match) (string, error)
	AnswerFreeform(toolOutput string) string
}

type Deps struct {
	Router          Classifier
	Retriever       Retriever
	Answerer        Answerer
	WebSearch       tools.Tool
	Weather         tools.Tool
	DefaultLocation string
	Logger          logger.ILogger
	Metrics         *metrics.Metrics
}

type Concierge struct {
	graph           *graph.Compiled[QueryState]
	deps            Deps
	defaultLocation string
}

func NewConcierge(deps Deps) (*Concierge, error) {
	if deps.Answerer == nil {
		return nil, errors.New("pipeline: answerer is required")
	}
	if deps.Router == nil {
		deps.Router = router.NewDefault()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	c := &Concierge{
		deps:            deps,
		defaultLocation: strings.TrimSpace(deps.DefaultLocation),
	}

	routes := map[string]string{
		string(router.BranchDocumentQA): string(router.BranchDocumentQA),
		string(router.BranchWebSearch):  string(router.BranchWebSearch),
		string(router.BranchWeather):    string(router.BranchWeather),
	}

	g, err := graph.New[QueryState]().
		AddNode(NodeStart, c.start).
		AddNode(string(router.BranchDocumentQA), c.documentQA).
		AddNode(string(router.BranchWebSearch), c.webSearch).
		AddNode(string(router.BranchWeather), c.weather).
		AddNode(NodeFinal, c.final).
		SetEntryPoint(NodeStart).
		AddConditionalEdges(NodeStart, c.route, routes).
		AddEdge(string(router.BranchDocumentQA), NodeFinal).
		AddEdge(string(router.BranchWebSearch), NodeFinal).
		AddEdge(string(router.BranchWeather), NodeFinal).
		AddEdge(NodeFinal, graph.End).
		Compile(c.traced, c.timed)
	if err != nil {
		return nil, err
	}

	c.graph = g
	return c, nil
}

// Run executes one query. The error is non-nil only when the graph itself
// could not complete, e.g. on context cancellation.
func (c *Concierge) Run(ctx context.Context, query, location string) (QueryState, error) {
	out, path, err := c.graph.Invoke(ctx, QueryState{Query: query, Location: location})

	outcome := "ok"
	if err != nil || out.Failed() {
		outcome = "warning"
	}
	if c.deps.Metrics != nil && out.Branch != "" {
		c.deps.Metrics.QueriesTotal.WithLabelValues(string(out.Branch), outcome).Inc()
	}

	details := map[string]interface{}{
		"branch":  out.Branch,
		"path":    strings.Join(path, " -> "),
		"outcome": outcome,
	}
	if out.Err != nil {
		details["error"] = out.Err
	}
	c.deps.Logger.Info("CONCIERGE", "query answered", details)

	return out, err
}

func (c *Concierge) start(_ context.Context, s QueryState) (QueryState, error) {
	return s, nil
}

func (c *Concierge) route(s QueryState) string {
	return string(c.deps.Router.Classify(s.Query))
}

func (c *Concierge) documentQA(ctx context.Context, s QueryState) (QueryState, error) {
	s.Branch = router.BranchDocumentQA

	if c.deps.Retriever == nil || !c.deps.Retriever.Ready() {
		return fail(s, apperr.ErrNoIndex), nil
	}

	matches, err := c.deps.Retriever.Retrieve(ctx, s.Query)
	if err != nil {
		return fail(s, apperr.Wrap(apperr.ErrQAFailed, err)), nil
	}

	answer, err := c.deps.Answerer.AnswerWithContext(ctx, s.Query, matches)
	if err != nil {
		return fail(s, apperr.Wrap(apperr.ErrQAFailed, err)), nil
	}

	s.Answer = answer
	s.Sources = sourcesOf(matches)
	return s, nil
}

func (c *Concierge) webSearch(ctx context.Context, s QueryState) (QueryState, error) {
	s.Branch = router.BranchWebSearch
	return c.runTool(ctx, s, c.deps.WebSearch, s.Query), nil
}

func (c *Concierge) weather(ctx context.Context, s QueryState) (QueryState, error) {
	s.Branch = router.BranchWeather
	loc := strings.TrimSpace(s.Location)
	if loc == "" {
		loc = c.defaultLocation
	}
	return c.runTool(ctx, s, c.deps.Weather, loc), nil
}

func (c *Concierge) runTool(ctx context.Context, s QueryState, tool tools.Tool, input string) QueryState {
	if tool == nil {
		return fail(s, fmt.Errorf("%s tool is not configured", s.Branch))
	}

	out, err := tool.Invoke(ctx, input)
	if err != nil {
		if c.deps.Metrics != nil {
			c.deps.Metrics.ToolFailuresTotal.WithLabelValues(tool.Name()).Inc()
		}
		return fail(s, err)
	}

	s.Answer = c.deps.Answerer.AnswerFreeform(out)
	return s
}

func (c *Concierge) final(_ context.Context, s QueryState) (QueryState, error) {
	s.Response = s.Answer
	return s, nil
}

func fail(s QueryState, err error) QueryState {
	s.Err = err
	s.Answer = apperr.Render(err)
	return s
}

func sourcesOf(matches []vectorindex.Match) []string {
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if !seen[m.Chunk.Source] {
			seen[m.Chunk.Source] = true
			out = append(out, m.Chunk.Source)
		}
	}
	return out
}

func (c *Concierge) traced(name string, next graph.NodeFunc[QueryState]) graph.NodeFunc[QueryState] {
	tracer := otel.Tracer("wine-concierge/pipeline")
	return func(ctx context.Context, s QueryState) (QueryState, error) {
		ctx, span := tracer.Start(ctx, "concierge."+name)
		defer span.End()

		out, err := next(ctx, s)
		if out.Branch != "" {
			span.SetAttributes(attribute.String("concierge.branch", string(out.Branch)))
		}
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case out.Err != nil && name != NodeFinal:
			span.RecordError(out.Err)
		}
		return out, err
	}
}

// timed records latency for handler nodes only.
func (c *Concierge) timed(name string, next graph.NodeFunc[QueryState]) graph.NodeFunc[QueryState] {
	if c.deps.Metrics == nil || name == NodeStart || name == NodeFinal {
		return next
	}
	return func(ctx context.Context, s QueryState) (QueryState, error) {
		started := time.Now()
		out, err := next(ctx, s)
		c.deps.Metrics.BranchLatency.WithLabelValues(name).Observe(time.Since(started).Seconds())
		return out, err
	}
}
