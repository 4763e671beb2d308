package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

// ClientSource yields the client responsible for a file.
type ClientSource interface {
	Client(ctx context.Context, path string) (*Client, error)
}

// Navigator answers source.Navigator queries through a language server.
// Every queried file is first synced from the command's document set, so
// the server reasons about the same text the command edits.
type Navigator struct {
	docs    *source.Documents
	clients ClientSource
}

var _ source.Navigator = (*Navigator)(nil)

// NewNavigator returns a navigator over docs.
func NewNavigator(docs *source.Documents, clients ClientSource) *Navigator {
	return &Navigator{docs: docs, clients: clients}
}

func (n *Navigator) prepare(ctx context.Context, path string) (*Client, *document.Document, error) {
	doc, err := n.docs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := n.clients.Client(ctx, doc.Path())
	if err != nil {
		return nil, nil, err
	}
	if err := c.sync(ctx, doc.Path(), doc.Text()); err != nil {
		return nil, nil, fmt.Errorf("lsp: sync %s: %w", path, err)
	}
	return c, doc, nil
}

// ResolveDeclaration implements source.Navigator.
func (n *Navigator) ResolveDeclaration(ctx context.Context, loc document.Location) (document.Location, error) {
	return n.locate(ctx, "textDocument/declaration", loc)
}

// ResolveDefinition implements source.Navigator.
func (n *Navigator) ResolveDefinition(ctx context.Context, loc document.Location) (document.Location, error) {
	return n.locate(ctx, "textDocument/definition", loc)
}

func (n *Navigator) locate(ctx context.Context, method string, loc document.Location) (document.Location, error) {
	c, doc, err := n.prepare(ctx, loc.Path)
	if err != nil {
		return document.Location{}, err
	}
	raw, err := c.call(ctx, method, map[string]any{
		"textDocument": protocol.TextDocumentIdentifier{URI: protocol.URIFromPath(doc.Path())},
		"position":     toWire(doc, loc.Range.Start),
	})
	if err != nil {
		return document.Location{}, err
	}
	locs, err := decodeLocations(raw)
	if err != nil {
		return document.Location{}, fmt.Errorf("lsp: decode %s: %w", method, err)
	}
	if len(locs) == 0 {
		return document.Location{}, source.ErrNotFound
	}

	path, err := pathFromURI(locs[0].URI)
	if err != nil {
		return document.Location{}, err
	}
	target, err := n.docs.Open(path)
	if err != nil {
		return document.Location{}, err
	}
	return document.Location{Path: target.Path(), Range: rangeFromWire(target, locs[0].Range)}, nil
}

// Outline implements source.Navigator.
func (n *Navigator) Outline(ctx context.Context, path string) ([]source.Symbol, error) {
	c, doc, err := n.prepare(ctx, path)
	if err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, "textDocument/documentSymbol", map[string]any{
		"textDocument": protocol.TextDocumentIdentifier{URI: protocol.URIFromPath(doc.Path())},
	})
	if err != nil {
		return nil, err
	}
	var syms []protocol.DocumentSymbol
	if err := json.Unmarshal(raw, &syms); err != nil {
		return nil, fmt.Errorf("lsp: decode outline: %w", err)
	}
	return symbolsFromWire(doc, syms, nil), nil
}

// SwitchPairedFile implements source.Navigator with clangd's
// textDocument/switchSourceHeader request.
func (n *Navigator) SwitchPairedFile(ctx context.Context, path string) (string, error) {
	c, doc, err := n.prepare(ctx, path)
	if err != nil {
		return "", err
	}
	raw, err := c.call(ctx, "textDocument/switchSourceHeader", protocol.TextDocumentIdentifier{URI: protocol.URIFromPath(doc.Path())})
	if err != nil {
		return "", err
	}
	var uri *protocol.DocumentURI
	if err := json.Unmarshal(raw, &uri); err != nil {
		return "", fmt.Errorf("lsp: decode paired file: %w", err)
	}
	if uri == nil || *uri == "" {
		return "", source.ErrNotFound
	}
	paired, err := pathFromURI(*uri)
	if err != nil {
		return "", err
	}
	if !n.docs.Exists(paired) {
		return "", errors.Join(source.ErrNotFound, fmt.Errorf("paired file %s does not exist", paired))
	}
	return paired, nil
}
