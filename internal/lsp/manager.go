package lsp

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"

	powernapconfig "github.com/charmbracelet/x/powernap/pkg/config"
	"github.com/rs/zerolog/log"
)

// skipAutoStart lists generic runners that must not be started as a server.
var skipAutoStart = map[string]bool{
	"npx":     true,
	"node":    true,
	"python":  true,
	"python3": true,
	"java":    true,
	"dotnet":  true,
	"bun":     true,
}

// ErrNoServer is returned when no language server handles a file.
var ErrNoServer = errors.New("no language server for C/C++")

// Server describes how to start a language server.
type Server struct {
	Name        string
	Command     string
	Args        []string
	Env         map[string]string
	RootMarkers []string
	InitOptions map[string]any
}

// Manager starts one server per workspace root on first use.
type Manager struct {
	server Server
	root   string

	mu      sync.Mutex
	clients map[string]*Client // root -> client
	broken  bool
}

// NewManager picks the server for C/C++ files. A non-empty command overrides
// powernap's built-in defaults. root is used when no root marker is found
// above a file.
func NewManager(command string, args []string, root string) *Manager {
	// Silence powernap's slog output; stderr belongs to the CLI.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	m := &Manager{root: root, clients: make(map[string]*Client)}
	if command != "" {
		m.server = Server{Name: filepath.Base(command), Command: command, Args: args, RootMarkers: defaultRootMarkers}
		return m
	}
	if s, ok := defaultServer("cpp"); ok {
		if len(args) > 0 {
			s.Args = args
		}
		m.server = s
		return m
	}
	m.server = Server{Name: "clangd", Command: "clangd", Args: args, RootMarkers: defaultRootMarkers}
	return m
}

var defaultRootMarkers = []string{"compile_commands.json", "compile_flags.txt", ".clangd", ".git"}

// defaultServer returns the first powernap default server for lang whose
// command is installed, preferring clangd.
func defaultServer(lang string) (Server, bool) {
	cm := powernapconfig.NewManager()
	if err := cm.LoadDefaults(); err != nil {
		log.Debug().Err(err).Msg("lsp: powernap defaults unavailable")
		return Server{}, false
	}
	servers := cm.GetServers()
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == "clangd":
			return -1
		case b == "clangd":
			return 1
		}
		return cmp.Compare(a, b)
	})
	for _, name := range names {
		cfg := servers[name]
		if !slices.Contains(cfg.FileTypes, lang) || skipAutoStart[cfg.Command] {
			continue
		}
		if lookPath(cfg.Command) == "" {
			continue
		}
		return Server{
			Name:        name,
			Command:     cfg.Command,
			Args:        cfg.Args,
			Env:         cfg.Environment,
			RootMarkers: cfg.RootMarkers,
			InitOptions: cfg.InitOptions,
		}, true
	}
	return Server{}, false
}

// Client returns the client for the workspace containing path, starting the
// server if needed.
func (m *Manager) Client(ctx context.Context, path string) (*Client, error) {
	root := findRoot(path, m.server.RootMarkers)
	if root == "" {
		root = m.root
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.clients[root]; ok {
		return c, nil
	}
	if m.broken {
		return nil, ErrNoServer
	}
	cmdPath := lookPath(m.server.Command)
	if cmdPath == "" {
		m.broken = true
		return nil, fmt.Errorf("%w: %s not installed", ErrNoServer, m.server.Command)
	}

	var initOptions any
	if len(m.server.InitOptions) > 0 {
		initOptions = m.server.InitOptions
	}
	c, err := Start(ctx, m.server.Name, cmdPath, m.server.Args, m.server.Env, root, initOptions)
	if err != nil {
		m.broken = true
		return nil, err
	}
	m.clients[root] = c
	return c, nil
}

// Add registers an already-initialized client for root.
func (m *Manager) Add(root string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[root] = c
}

// StopAll gracefully shuts down all running servers.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	for _, c := range clients {
		if err := c.Close(ctx); err != nil {
			log.Warn().Err(err).Str("server", c.serverID).Msg("lsp: stop")
		}
	}
}

// findRoot walks up from the file looking for any of the root markers.
func findRoot(absPath string, markers []string) string {
	dir := filepath.Dir(absPath)
	for {
		for _, marker := range markers {
			matches, _ := filepath.Glob(filepath.Join(dir, marker))
			if len(matches) > 0 {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// lookPath finds a command binary in PATH or ~/.local/bin.
func lookPath(command string) string {
	if p, err := exec.LookPath(command); err == nil {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".local", "bin", command)
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p
	}
	return ""
}
