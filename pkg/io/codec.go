package io

import (
	"errors"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeflow/pkg/codec"
	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/observability"
)

// Element tags of the graph subtree.
const (
	TagNode       = "node"
	TagEdge       = "edge"
	TagAnnotation = "annotation"
	TagData       = "data"
)

// Attributes of the graph subtree.
const (
	AttrID            = "id"
	AttrX             = "x"
	AttrY             = "y"
	AttrFromItem      = "fromItem"
	AttrFromIndex     = "fromIndex"
	AttrToItem        = "toItem"
	AttrToIndex       = "toIndex"
	AttrTransportType = "transportType"
	AttrRouteMode     = "rmode"
	AttrRouteLength   = "len"
	AttrRouteHori     = "hori"
	AttrContent       = "content"
	AttrWidth         = "width"
	AttrColor         = "color"
)

// Codec saves and loads graphs.
type Codec struct {
	values  *codec.Codec
	factory graph.Factory
	logger  *log.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger. The default is the value codec's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// New creates a graph codec that persists node state through values and
// creates nodes through factory when loading.
func New(values *codec.Codec, factory graph.Factory, opts ...Option) *Codec {
	c := &Codec{values: values, factory: factory}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = values.Logger()
	}
	return c
}

// Values returns the value codec used for node state.
func (c *Codec) Values() *codec.Codec { return c.values }

// Save writes g into container: nodes first, then edges, then annotations.
//
// Ephemeral nodes are skipped. An edge touching a skipped node cannot be
// written and is reported as DANGLING_REFERENCE. Saving continues past
// failed items and returns their joined errors.
func (c *Codec) Save(container *etree.Element, g *graph.Graph) error {
	start := time.Now()
	var (
		failed []error
		stats  observability.GraphStats
	)

	ids := make(map[*graph.Node]int, g.NodeCount())
	for _, n := range g.Nodes() {
		if n.Ephemeral {
			continue
		}
		id := len(ids)
		ids[n] = id

		el := container.CreateElement(TagNode)
		el.CreateAttr(markup.AttrType, n.Type)
		el.CreateAttr(markup.AttrName, n.Name)
		markup.SetFloat(el, AttrX, n.Pos.X)
		markup.SetFloat(el, AttrY, n.Pos.Y)
		markup.SetInt(el, AttrID, id)

		data := el.CreateElement(TagData)
		if n.Data != nil {
			if err := c.values.SaveObject(data, n.Data); err != nil {
				failed = append(failed, errs.Wrap(errs.GetCode(err), err, "node %d (%s)", id, n.Type))
			}
		}
		stats.Nodes++
	}

	for i, e := range g.Edges() {
		from, okFrom := ids[e.From.Node()]
		to, okTo := ids[e.To.Node()]
		if !okFrom || !okTo {
			err := errs.New(errs.ErrCodeDanglingReference, "edge %d: endpoint was not saved", i)
			c.logger.Error(err.Message, "from", e.From.Node().Type, "to", e.To.Node().Type)
			failed = append(failed, err)
			continue
		}

		el := container.CreateElement(TagEdge)
		markup.SetInt(el, AttrFromItem, from)
		markup.SetInt(el, AttrFromIndex, e.From.Index())
		markup.SetInt(el, AttrToItem, to)
		markup.SetInt(el, AttrToIndex, e.To.Index())
		el.CreateAttr(AttrTransportType, e.From.Transport)
		if r := e.Routing; r != nil {
			markup.SetInt(el, AttrRouteMode, r.Mode)
			markup.SetFloat(el, AttrRouteLength, r.Length)
			el.CreateAttr(AttrRouteHori, strconv.FormatBool(r.Horizontal))
		}
		stats.Edges++
	}

	for _, a := range g.Annotations() {
		el := container.CreateElement(TagAnnotation)
		markup.SetFloat(el, AttrX, a.Pos.X)
		markup.SetFloat(el, AttrY, a.Pos.Y)
		data := el.CreateElement(TagData)
		data.CreateAttr(AttrContent, a.Content)
		markup.SetFloat(data, AttrWidth, a.Width)
		data.CreateAttr(AttrColor, a.Color)
		stats.Annotations++
	}

	err := errors.Join(failed...)
	observability.Graph().OnSave(stats, time.Since(start), err)
	c.logger.Debug("saved graph", "nodes", stats.Nodes, "edges", stats.Edges, "annotations", stats.Annotations)
	return err
}
