package io

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/observability"
	"github.com/matzehuels/nodeflow/pkg/progress"
)

// LoadOptions configures a Load call.
type LoadOptions struct {
	// Progress receives one Advance per node and annotation element.
	// Defaults to progress.Nop.
	Progress progress.Reporter

	// Connect links the ports of every valid edge. Leave it unset to
	// rebuild a graph for display only.
	Connect bool
}

// Diagnostic describes one element that could not be loaded as written.
type Diagnostic struct {
	Element string    `json:"element" yaml:"element"` // tag of the offending element
	Index   int       `json:"index" yaml:"index"`     // position among the container's child elements
	Code    errs.Code `json:"code" yaml:"code"`       // failure category
	Message string    `json:"message" yaml:"message"`
	Fatal   bool      `json:"fatal" yaml:"fatal"` // true if the item fails the load as a whole
}

// Result is the outcome of a Load call.
type Result struct {
	// Graph holds every node, edge and annotation that was reconstructed.
	Graph *graph.Graph

	// Items has one entry per node element in document order. Nodes
	// whose type could not be created are nil.
	Items []*graph.Node

	Diagnostics []Diagnostic
}

// Dropped returns the number of diagnostics recorded.
func (r *Result) Dropped() int { return len(r.Diagnostics) }

type loader struct {
	c      *Codec
	opts   LoadOptions
	res    *Result
	ids    map[int]*graph.Node
	failed []error
	stats  observability.GraphStats
}

// Load reconstructs a graph from container.
//
// The returned Result is never nil. The error joins every structural
// failure: node types the factory could not create, malformed node
// elements, duplicate ids and node data that failed to load. Edges that do
// not resolve are dropped and only show up as diagnostics.
func (c *Codec) Load(container *etree.Element, opts LoadOptions) (*Result, error) {
	start := time.Now()
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	l := &loader{
		c:    c,
		opts: opts,
		res:  &Result{Graph: graph.New()},
		ids:  make(map[int]*graph.Node),
	}

	children := container.ChildElements()
	goal := 0
	for _, el := range children {
		if el.Tag == TagNode || el.Tag == TagAnnotation {
			goal++
		}
	}
	opts.Progress.Reset(goal, 0)

	for i, el := range children {
		switch el.Tag {
		case TagNode:
			l.node(i, el)
			opts.Progress.Advance()
		case TagEdge:
			l.edge(i, el)
		case TagAnnotation:
			l.annotation(i, el)
			opts.Progress.Advance()
		default:
			c.logger.Debug("skipping unknown graph element", "tag", el.Tag)
		}
	}
	opts.Progress.Done()

	err := errors.Join(l.failed...)
	l.stats.Dropped = l.res.Dropped()
	observability.Graph().OnLoad(l.stats, time.Since(start), err)
	return l.res, err
}

func (l *loader) diagnose(i int, el *etree.Element, err error, fatal bool) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	d := Diagnostic{
		Element: el.Tag,
		Index:   i,
		Code:    code,
		Message: errs.UserMessage(err),
		Fatal:   fatal,
	}
	l.res.Diagnostics = append(l.res.Diagnostics, d)
	if fatal {
		l.failed = append(l.failed, err)
		l.opts.Progress.Report(fmt.Sprintf("%s #%d failed: %s", d.Element, d.Index, d.Message))
	} else {
		l.opts.Progress.Report(fmt.Sprintf("%s #%d dropped: %s", d.Element, d.Index, d.Message))
	}
}

func (l *loader) node(i int, el *etree.Element) {
	log := l.c.logger

	typeName, err := markup.RequireAttr(el, markup.AttrType)
	var id int
	if err == nil {
		id, err = markup.IntAttr(el, AttrID)
	}
	if err != nil {
		log.Error("malformed node", "index", i, "err", err)
		l.res.Items = append(l.res.Items, nil)
		l.diagnose(i, el, err, true)
		return
	}
	if _, dup := l.ids[id]; dup {
		err := errs.New(errs.ErrCodeMalformed, "duplicate node id %d", id)
		log.Error(err.Message, "index", i)
		l.res.Items = append(l.res.Items, nil)
		l.diagnose(i, el, err, true)
		return
	}

	n, err := l.c.factory.Create(typeName)
	if err != nil || n == nil {
		if err == nil {
			err = errs.New(errs.ErrCodeUnknownType, "factory returned no node for %q", typeName)
		}
		log.Warn("cannot create node", "type", typeName, "id", id, "err", err)
		l.res.Items = append(l.res.Items, nil)
		l.diagnose(i, el, err, true)
		return
	}

	n.Name, _ = markup.Attr(el, markup.AttrName)
	if x, err := markup.FloatAttr(el, AttrX); err == nil {
		n.Pos.X = x
	}
	if y, err := markup.FloatAttr(el, AttrY); err == nil {
		n.Pos.Y = y
	}

	if data := el.SelectElement(TagData); data != nil {
		switch {
		case n.Data != nil:
			if err := l.c.values.LoadObject(data, n.Data); err != nil {
				l.diagnose(i, el, errs.Wrap(errs.GetCode(err), err, "node %d (%s) data", id, typeName), true)
			}
		case len(data.SelectElements(markup.TagProperty)) > 0:
			log.Warn("node has no state to load properties into", "type", typeName, "id", id)
		}
	}

	if err := l.res.Graph.AddNode(n); err != nil {
		err := errs.Wrap(errs.ErrCodeInternal, err, "add node %d", id)
		l.res.Items = append(l.res.Items, nil)
		l.diagnose(i, el, err, true)
		return
	}
	l.ids[id] = n
	l.res.Items = append(l.res.Items, n)
	l.stats.Nodes++
}

// edge validates and adds one edge. Every failure here drops the edge
// without failing the load.
func (l *loader) edge(i int, el *etree.Element) {
	from, to, err := l.resolveEdge(el)
	if err != nil {
		l.c.logger.Error("dropping edge", "index", i, "err", err)
		l.diagnose(i, el, err, false)
		return
	}

	var e *graph.Edge
	if l.opts.Connect {
		e, err = l.res.Graph.Connect(from, to)
	} else {
		e, err = l.res.Graph.AddEdge(from, to)
	}
	if err != nil {
		err := errs.Wrap(errs.ErrCodeDanglingReference, err, "edge %s -> %s", from.Name, to.Name)
		l.c.logger.Error("dropping edge", "index", i, "err", err)
		l.diagnose(i, el, err, false)
		return
	}

	if _, ok := markup.Attr(el, AttrRouteMode); ok {
		r, err := parseRouting(el)
		if err != nil {
			l.c.logger.Warn("ignoring routing hint", "index", i, "err", err)
		} else {
			e.Routing = r
		}
	}
	l.stats.Edges++
}

func (l *loader) resolveEdge(el *etree.Element) (*graph.Port, *graph.Port, error) {
	var (
		vals [4]int
		err  error
	)
	for k, name := range []string{AttrFromItem, AttrFromIndex, AttrToItem, AttrToIndex} {
		if vals[k], err = markup.IntAttr(el, name); err != nil {
			return nil, nil, errs.Wrap(errs.ErrCodeDanglingReference, err, "unreadable endpoint")
		}
	}
	transport, _ := markup.Attr(el, AttrTransportType)

	src, ok := l.ids[vals[0]]
	if !ok {
		return nil, nil, errs.New(errs.ErrCodeDanglingReference, "unknown source node id %d", vals[0])
	}
	dst, ok := l.ids[vals[2]]
	if !ok {
		return nil, nil, errs.New(errs.ErrCodeDanglingReference, "unknown target node id %d", vals[2])
	}
	from, ok := src.Output(vals[1])
	if !ok {
		return nil, nil, errs.New(errs.ErrCodeDanglingReference, "node %d has no output %d", vals[0], vals[1])
	}
	to, ok := dst.Input(vals[3])
	if !ok {
		return nil, nil, errs.New(errs.ErrCodeDanglingReference, "node %d has no input %d", vals[2], vals[3])
	}
	if from.Transport != transport {
		return nil, nil, errs.New(errs.ErrCodeDanglingReference, "output %s carries %q, edge expects %q", from.Name, from.Transport, transport)
	}
	if to.Transport != transport {
		return nil, nil, errs.New(errs.ErrCodeDanglingReference, "input %s carries %q, edge expects %q", to.Name, to.Transport, transport)
	}
	return from, to, nil
}

func parseRouting(el *etree.Element) (*graph.Routing, error) {
	mode, err := markup.IntAttr(el, AttrRouteMode)
	if err != nil {
		return nil, err
	}
	r := &graph.Routing{Mode: mode}
	if s, ok := markup.Attr(el, AttrRouteLength); ok {
		if r.Length, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, errs.Wrap(errs.ErrCodeMalformed, err, "routing length %q", s)
		}
	}
	if s, ok := markup.Attr(el, AttrRouteHori); ok {
		if r.Horizontal, err = strconv.ParseBool(s); err != nil {
			return nil, errs.Wrap(errs.ErrCodeMalformed, err, "routing orientation %q", s)
		}
	}
	return r, nil
}

func (l *loader) annotation(i int, el *etree.Element) {
	a := &graph.Annotation{}
	x, errX := markup.FloatAttr(el, AttrX)
	y, errY := markup.FloatAttr(el, AttrY)
	if err := errors.Join(errX, errY); err != nil {
		l.c.logger.Warn("annotation position", "index", i, "err", err)
	}
	a.Pos = graph.Point{X: x, Y: y}

	if data := el.SelectElement(TagData); data != nil {
		a.Content, _ = markup.Attr(data, AttrContent)
		a.Color, _ = markup.Attr(data, AttrColor)
		if _, ok := markup.Attr(data, AttrWidth); ok {
			w, err := markup.FloatAttr(data, AttrWidth)
			if err != nil {
				l.c.logger.Warn("annotation width", "index", i, "err", err)
			}
			a.Width = w
		}
	}
	l.res.Graph.AddAnnotation(a)
	l.stats.Annotations++
}
