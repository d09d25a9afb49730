package driver

import (
	"os"

	"github.com/hassan/chemc/internal/importgraph"
)

// ImportLoader implements importgraph.Loader by running just enough of the
// front end — lex, build a CST, convert to a File — to read one file's
// import list. It does not resolve symbols or lower to IR; Build (below)
// reruns the front end per file once the graph is flattened, since a file's
// own conversion result isn't reusable across the two passes (the first
// pass may visit a file before its own imports are known).
type ImportLoader struct {
	Cache *SourceCache
}

// NewImportLoader returns a loader that reads source bytes through cache,
// or directly from disk when cache is nil.
func NewImportLoader(cache *SourceCache) *ImportLoader {
	return &ImportLoader{Cache: cache}
}

func (l *ImportLoader) Imports(absPath string) ([]importgraph.RawImport, error) {
	src, err := l.readFile(absPath)
	if err != nil {
		return nil, err
	}

	_, file, _, err := convertFile(src, absPath)
	if err != nil {
		return nil, err
	}

	raws := make([]importgraph.RawImport, 0, len(file.Imports))
	for _, imp := range file.Imports {
		raws = append(raws, importgraph.RawImport{Path: imp.Path, AsIdentifier: imp.AsIdentifier})
	}
	return raws, nil
}

func (l *ImportLoader) readFile(absPath string) ([]byte, error) {
	if l.Cache != nil {
		return l.Cache.Read(absPath)
	}
	return os.ReadFile(absPath)
}
