package io

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/markup"
)

const (
	// RootTag is the root element of a nodeflow document.
	RootTag = "nodeflow"

	// GraphTag is the container element holding the graph.
	GraphTag = "graph"

	// Version is written to the root element. Documents whose major
	// version differs are rejected.
	Version = "1"

	attrVersion = "version"
)

// Encode saves g into a new document. The document is returned even when
// some items failed to save, together with their joined errors.
func (c *Codec) Encode(g *graph.Graph) (*etree.Document, error) {
	doc, root := markup.NewDocument(RootTag)
	root.CreateAttr(attrVersion, Version)
	err := c.Save(root.CreateElement(GraphTag), g)
	return doc, err
}

// GraphContainer returns the graph element of doc after checking the root
// element and its version.
func GraphContainer(doc *etree.Document) (*etree.Element, error) {
	root := doc.Root()
	if root == nil || root.Tag != RootTag {
		return nil, errs.New(errs.ErrCodeMalformed, "document root is not <%s>", RootTag)
	}
	v, ok := markup.Attr(root, attrVersion)
	if !ok {
		return nil, errs.New(errs.ErrCodeMalformed, "document has no version")
	}
	if major, _, _ := strings.Cut(v, "."); major != Version {
		return nil, errs.New(errs.ErrCodeMalformed, "unsupported document version %q", v)
	}
	container := root.SelectElement(GraphTag)
	if container == nil {
		return nil, errs.New(errs.ErrCodeMalformed, "document has no <%s> element", GraphTag)
	}
	return container, nil
}

// Decode loads the graph held by doc.
func (c *Codec) Decode(doc *etree.Document, opts LoadOptions) (*Result, error) {
	container, err := GraphContainer(doc)
	if err != nil {
		c.logger.Error("cannot load document", "err", err)
		return &Result{Graph: graph.New()}, err
	}
	return c.Load(container, opts)
}

// Write encodes g and writes it to w. Nothing is written if any item
// failed to save.
func (c *Codec) Write(w io.Writer, g *graph.Graph, indent int) error {
	doc, err := c.Encode(g)
	if err != nil {
		return err
	}
	return markup.Write(w, doc, indent)
}

// WriteFile encodes g and writes it to path.
func (c *Codec) WriteFile(path string, g *graph.Graph, indent int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.Write(f, g, indent); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a document from r and loads its graph.
func (c *Codec) Read(r io.Reader, opts LoadOptions) (*Result, error) {
	doc, err := markup.Read(r)
	if err != nil {
		return &Result{Graph: graph.New()}, err
	}
	return c.Decode(doc, opts)
}

// ReadFile loads the graph stored at path.
func (c *Codec) ReadFile(path string, opts LoadOptions) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Result{Graph: graph.New()}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.Read(f, opts)
}
