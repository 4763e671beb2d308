package lsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

// Servers count columns in UTF-16 code units; documents count bytes.

func toWire(doc *document.Document, p document.Position) protocol.Position {
	line := doc.Line(p.Line)
	col := min(max(p.Col, 0), len(line))
	units := 0
	for _, r := range line[:col] {
		units += utf16.RuneLen(r)
	}
	return protocol.Position{Line: uint32(p.Line), Character: uint32(units)}
}

func fromWire(doc *document.Document, p protocol.Position) document.Position {
	line := doc.Line(int(p.Line))
	units, col := 0, 0
	for col < len(line) && units < int(p.Character) {
		r, size := utf8.DecodeRuneInString(line[col:])
		units += utf16.RuneLen(r)
		col += size
	}
	return document.Position{Line: int(p.Line), Col: col}
}

func rangeFromWire(doc *document.Document, r protocol.Range) document.Range {
	return document.Range{Start: fromWire(doc, r.Start), End: fromWire(doc, r.End)}
}

func pathFromURI(uri protocol.DocumentURI) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// decodeLocations accepts every shape a declaration or definition response
// may take: null, Location, Location[] or LocationLink[].
func decodeLocations(raw json.RawMessage) ([]protocol.Location, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var loc protocol.Location
		if err := json.Unmarshal(raw, &loc); err != nil {
			return nil, err
		}
		return []protocol.Location{loc}, nil
	}

	var head []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	if len(head) == 0 {
		return nil, nil
	}
	if _, ok := head[0]["targetUri"]; ok {
		var links []protocol.LocationLink
		if err := json.Unmarshal(raw, &links); err != nil {
			return nil, err
		}
		locs := make([]protocol.Location, len(links))
		for i, l := range links {
			locs[i] = protocol.Location{URI: l.TargetURI, Range: l.TargetSelectionRange}
		}
		return locs, nil
	}
	var locs []protocol.Location
	if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, err
	}
	return locs, nil
}

func kindFromWire(k protocol.SymbolKind) source.Kind {
	switch k {
	case protocol.Namespace:
		return source.KindNamespace
	case protocol.Class:
		return source.KindClass
	case protocol.Struct:
		return source.KindStruct
	case protocol.Method, protocol.Constructor:
		return source.KindMethod
	case protocol.Function:
		return source.KindFunction
	}
	return source.KindOther
}

func symbolsFromWire(doc *document.Document, syms []protocol.DocumentSymbol, container []string) []source.Symbol {
	out := make([]source.Symbol, 0, len(syms))
	for _, s := range syms {
		sym := source.Symbol{
			Name:      s.Name,
			Kind:      kindFromWire(s.Kind),
			Container: container,
			Range:     rangeFromWire(doc, s.Range),
			NameRange: rangeFromWire(doc, s.SelectionRange),
		}
		if len(s.Children) > 0 {
			inner := append(append([]string{}, container...), s.Name)
			sym.Children = symbolsFromWire(doc, s.Children, inner)
		}
		out = append(out, sym)
	}
	return out
}
