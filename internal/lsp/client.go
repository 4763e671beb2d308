// Package lsp answers navigation queries through a language server (clangd)
// spoken to over JSON-RPC, with server discovery from powernap's defaults.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	powernap "github.com/charmbracelet/x/powernap/pkg/lsp"
	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/jsonrpc2"
)

// Client is one initialized language server connection.
type Client struct {
	conn     *jsonrpc2.Conn
	serverID string
	root     string
	proc     *exec.Cmd

	mu   sync.Mutex
	open map[protocol.DocumentURI]openDoc
}

type openDoc struct {
	version int
	text    string
}

// Dial initializes a server reachable through rwc for the workspace root.
func Dial(ctx context.Context, serverID string, rwc io.ReadWriteCloser, root string, initOptions any) (*Client, error) {
	c := &Client{
		serverID: serverID,
		root:     root,
		open:     make(map[protocol.DocumentURI]openDoc),
	}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	c.conn = jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(c.handle))

	if err := c.initialize(ctx, initOptions); err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("lsp: initialize %s: %w", serverID, err)
	}
	return c, nil
}

// Start spawns the server binary and initializes it.
func Start(ctx context.Context, serverID, command string, args []string, env map[string]string, root string, initOptions any) (*Client, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = root
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("lsp: start %s: %w", serverID, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c, err := Dial(initCtx, serverID, stdio{stdout, stdin}, root, initOptions)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	c.proc = cmd
	log.Info().Str("server", serverID).Str("root", root).Str("cmd", command).Msg("lsp: server started")
	return c, nil
}

type stdio struct {
	io.ReadCloser
	io.WriteCloser
}

func (s stdio) Close() error {
	return errors.Join(s.WriteCloser.Close(), s.ReadCloser.Close())
}

// handle answers the requests servers send to clients. None of them matter
// to a one-shot command, so they are acknowledged and dropped.
func (c *Client) handle(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "window/workDoneProgress/create", "client/registerCapability", "workspace/configuration":
		return nil, nil
	}
	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: req.Method}
}

func (c *Client) initialize(ctx context.Context, initOptions any) error {
	rootURI := protocol.URIFromPath(c.root)
	params := map[string]any{
		"processId": os.Getpid(),
		"rootUri":   rootURI,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"declaration":    map[string]any{"linkSupport": true},
				"definition":     map[string]any{"linkSupport": true},
				"documentSymbol": map[string]any{"hierarchicalDocumentSymbolSupport": true},
			},
		},
		"workspaceFolders": []map[string]any{
			{"uri": rootURI, "name": filepath.Base(c.root)},
		},
	}
	if initOptions != nil {
		params["initializationOptions"] = initOptions
	}
	var result json.RawMessage
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	return c.conn.Notify(ctx, "initialized", map[string]any{})
}

// sync makes the server see text as the content of path: didOpen the first
// time, didChange when the text differs from what was last sent.
func (c *Client) sync(ctx context.Context, path, text string) error {
	uri := protocol.URIFromPath(path)

	c.mu.Lock()
	doc, alreadyOpen := c.open[uri]
	if alreadyOpen && doc.text == text {
		c.mu.Unlock()
		return nil
	}
	doc.version++
	doc.text = text
	c.open[uri] = doc
	c.mu.Unlock()

	if !alreadyOpen {
		lang := string(powernap.DetectLanguage(path))
		if lang == "" {
			lang = "cpp"
		}
		return c.conn.Notify(ctx, "textDocument/didOpen", map[string]any{
			"textDocument": map[string]any{
				"uri":        uri,
				"languageId": lang,
				"version":    doc.version,
				"text":       text,
			},
		})
	}
	return c.conn.Notify(ctx, "textDocument/didChange", map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": doc.version},
		"contentChanges": []map[string]any{{"text": text}},
	})
}

// call sends a request and stores the raw result.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.conn.Call(ctx, method, params, &result); err != nil {
		return nil, fmt.Errorf("lsp: %s: %w", method, err)
	}
	return result, nil
}

// Close gracefully shuts down the server.
func (c *Client) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.conn.Call(ctx, "shutdown", nil, nil)
	if err == nil {
		err = c.conn.Notify(ctx, "exit", nil)
	}
	c.conn.Close()

	if c.proc != nil {
		done := make(chan struct{})
		go func() {
			_ = c.proc.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			_ = c.proc.Process.Kill()
			<-done
		}
	}
	if err != nil {
		return fmt.Errorf("lsp: shutdown %s: %w", c.serverID, err)
	}
	return nil
}
