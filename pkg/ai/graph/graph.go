// Package graph runs a small directed acyclic state machine over a typed
// state value. Each node transforms the state and exactly one transition
// leaves every node, either a fixed edge or a conditional edge whose
// router picks the next node from the state.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// End is the pseudo node that terminates a run.
const End = "__end__"

var (
	ErrNoEntryPoint  = errors.New("graph: entry point not set")
	ErrUnknownNode   = errors.New("graph: unknown node")
	ErrDuplicateNode = errors.New("graph: duplicate node")
	ErrCycle         = errors.New("graph: cycle detected")
	ErrTransition    = errors.New("graph: invalid transition")
)

type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouteFunc returns a key into the conditional edge's target map.
type RouteFunc[S any] func(state S) string

// Middleware wraps every node at compile time.
type Middleware[S any] func(name string, next NodeFunc[S]) NodeFunc[S]

type conditional[S any] struct {
	route   RouteFunc[S]
	targets map[string]string
}

type Graph[S any] struct {
	nodes       map[string]NodeFunc[S]
	order       []string
	edges       map[string]string
	conditional map[string]conditional[S]
	entry       string
	errs        []error
}

func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:       make(map[string]NodeFunc[S]),
		edges:       make(map[string]string),
		conditional: make(map[string]conditional[S]),
	}
}

func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) *Graph[S] {
	if name == End || name == "" {
		g.errs = append(g.errs, fmt.Errorf("%w: reserved name %q", ErrTransition, name))
		return g
	}
	if _, ok := g.nodes[name]; ok {
		g.errs = append(g.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, name))
		return g
	}
	g.nodes[name] = fn
	g.order = append(g.order, name)
	return g
}

func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	if g.hasTransition(from) {
		g.errs = append(g.errs, fmt.Errorf("%w: %s already has an outgoing transition", ErrTransition, from))
		return g
	}
	g.edges[from] = to
	return g
}

// AddConditionalEdges routes from a node through route; targets maps each
// route key to a node name or End.
func (g *Graph[S]) AddConditionalEdges(from string, route RouteFunc[S], targets map[string]string) *Graph[S] {
	if g.hasTransition(from) {
		g.errs = append(g.errs, fmt.Errorf("%w: %s already has an outgoing transition", ErrTransition, from))
		return g
	}
	copied := make(map[string]string, len(targets))
	for k, v := range targets {
		copied[k] = v
	}
	g.conditional[from] = conditional[S]{route: route, targets: copied}
	return g
}

func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entry = name
	return g
}

func (g *Graph[S]) hasTransition(from string) bool {
	_, fixed := g.edges[from]
	_, cond := g.conditional[from]
	return fixed || cond
}

// Compile validates the topology and freezes it. Every node must have one
// outgoing transition, every target must exist and the graph must be acyclic.
func (g *Graph[S]) Compile(mw ...Middleware[S]) (*Compiled[S], error) {
	if len(g.errs) > 0 {
		return nil, errors.Join(g.errs...)
	}
	if g.entry == "" {
		return nil, ErrNoEntryPoint
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("%w: entry %s", ErrUnknownNode, g.entry)
	}

	for _, name := range g.order {
		if !g.hasTransition(name) {
			return nil, fmt.Errorf("%w: %s has no outgoing transition", ErrTransition, name)
		}
	}
	for from := range g.edges {
		if err := g.checkEndpoints(from, g.successors(from)); err != nil {
			return nil, err
		}
	}
	for from := range g.conditional {
		if len(g.conditional[from].targets) == 0 {
			return nil, fmt.Errorf("%w: %s has no conditional targets", ErrTransition, from)
		}
		if err := g.checkEndpoints(from, g.successors(from)); err != nil {
			return nil, err
		}
	}
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	c := &Compiled[S]{
		nodes:       make(map[string]NodeFunc[S], len(g.nodes)),
		edges:       make(map[string]string, len(g.edges)),
		conditional: make(map[string]conditional[S], len(g.conditional)),
		entry:       g.entry,
		maxSteps:    len(g.nodes) + 1,
	}
	for from, to := range g.edges {
		c.edges[from] = to
	}
	for from, cond := range g.conditional {
		c.conditional[from] = cond
	}
	for name, fn := range g.nodes {
		wrapped := fn
		for i := len(mw) - 1; i >= 0; i-- {
			wrapped = mw[i](name, wrapped)
		}
		c.nodes[name] = wrapped
	}
	return c, nil
}

func (g *Graph[S]) checkEndpoints(from string, targets []string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: transition from %s", ErrUnknownNode, from)
	}
	for _, to := range targets {
		if to == End {
			continue
		}
		if _, ok := g.nodes[to]; !ok {
			return fmt.Errorf("%w: transition %s -> %s", ErrUnknownNode, from, to)
		}
	}
	return nil
}

func (g *Graph[S]) successors(from string) []string {
	if to, ok := g.edges[from]; ok {
		return []string{to}
	}
	cond, ok := g.conditional[from]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(cond.targets))
	for _, to := range cond.targets {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

func (g *Graph[S]) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.nodes))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w at %s", ErrCycle, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, next := range g.successors(name) {
			if next == End {
				continue
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Compiled is an immutable, concurrency-safe graph.
type Compiled[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string]string
	conditional map[string]conditional[S]
	entry       string
	maxSteps    int
}

// Invoke runs from the entry point until End and returns the final state
// together with the nodes visited in order.
func (c *Compiled[S]) Invoke(ctx context.Context, state S) (S, []string, error) {
	current := c.entry
	path := make([]string, 0, c.maxSteps)

	for steps := 0; current != End; steps++ {
		if steps >= c.maxSteps {
			return state, path, fmt.Errorf("%w: step limit exceeded", ErrCycle)
		}
		if err := ctx.Err(); err != nil {
			return state, path, err
		}

		fn := c.nodes[current]
		path = append(path, current)

		next, err := fn(ctx, state)
		if err != nil {
			return state, path, fmt.Errorf("node %s: %w", current, err)
		}
		state = next

		current, err = c.next(current, state)
		if err != nil {
			return state, path, err
		}
	}

	return state, path, nil
}

func (c *Compiled[S]) next(from string, state S) (string, error) {
	if to, ok := c.edges[from]; ok {
		return to, nil
	}
	cond := c.conditional[from]
	key := cond.route(state)
	to, ok := cond.targets[key]
	if !ok {
		return "", fmt.Errorf("%w: %s routed to unmapped key %q", ErrTransition, from, key)
	}
	return to, nil
}
