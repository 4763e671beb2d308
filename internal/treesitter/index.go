package treesitter

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// maxFileSize bounds the files the index parses.
const maxFileSize = 1 << 20

// Index holds the flattened outline of every C++ file under a workspace
// root. It is only used to find which files mention a name; lookups then
// re-read those files through the command's document set.
type Index struct {
	mu      sync.RWMutex
	root    string
	exclude []string
	files   map[string][]entry // absPath -> entries
	built   bool
}

// NewIndex creates an empty index rooted at dir. Exclude globs are matched
// like .gitignore lines.
func NewIndex(root string, exclude []string) *Index {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Index{
		root:    root,
		exclude: exclude,
		files:   make(map[string][]entry),
	}
}

// Root returns the absolute workspace root.
func (idx *Index) Root() string { return idx.root }

// Ensure builds the index on first use.
func (idx *Index) Ensure(ctx context.Context) error {
	idx.mu.RLock()
	built := idx.built
	idx.mu.RUnlock()
	if built {
		return nil
	}
	return idx.Build(ctx)
}

// Build walks the workspace and parses every supported file in parallel.
// Respects .gitignore and the exclude globs.
func (idx *Index) Build(ctx context.Context) error {
	rules, err := loadIgnore(idx.root, idx.exclude)
	if err != nil {
		log.Warn().Err(err).Str("root", idx.root).Msg("index: ignoring unreadable .gitignore")
		rules, _ = loadIgnore("", idx.exclude)
	}

	paths, err := idx.walk(rules)
	if err != nil {
		return err
	}

	files := make(map[string][]entry, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("index: skip unreadable file")
				return nil
			}
			_, entries, err := parse(gctx, path, src)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Debug().Err(err).Str("path", path).Msg("index: skip unparsable file")
				return nil
			}
			if len(entries) == 0 {
				return nil
			}
			mu.Lock()
			files[path] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.files = files
	idx.built = true
	idx.mu.Unlock()

	log.Debug().Str("root", idx.root).Int("files", len(files)).Msg("index: built")
	return nil
}

func (idx *Index) walk(rules *ignoreRules) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(idx.root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, err := filepath.Rel(idx.root, path)
		if err != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" || rules.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if rules.Match(rel, false) || !Supported(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxFileSize {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

// Update re-parses a single file after it was written.
func (idx *Index) Update(ctx context.Context, path string, src []byte) {
	if !Supported(path) {
		return
	}
	_, entries, err := parse(ctx, path, src)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err != nil || len(entries) == 0 {
		delete(idx.files, path)
		return
	}
	idx.files[path] = entries
}

// Files returns every indexed path, sorted.
func (idx *Index) Files() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	paths := make([]string, 0, len(idx.files))
	for p := range idx.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FilesNaming returns the sorted paths that declare or define a symbol whose
// last name segment is name.
func (idx *Index) FilesNaming(name string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var paths []string
	for p, entries := range idx.files {
		for _, e := range entries {
			if e.name() == name {
				paths = append(paths, p)
				break
			}
		}
	}
	sort.Strings(paths)
	return paths
}
