package driver

import (
	"os"
	"sync"
)

// SourceCache memoizes a file's raw bytes for the lifetime of one build.
// Both the import-scanning pass (ImportLoader) and the per-file compile
// pass (Driver.convert) read the same files; without this, every file
// would be read from disk twice.
type SourceCache struct {
	mu    sync.Mutex
	bytes map[string][]byte
}

func NewSourceCache() *SourceCache {
	return &SourceCache{bytes: make(map[string][]byte)}
}

func (s *SourceCache) Read(absPath string) ([]byte, error) {
	s.mu.Lock()
	if b, ok := s.bytes[absPath]; ok {
		s.mu.Unlock()
		return b, nil
	}
	s.mu.Unlock()

	b, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.bytes[absPath]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.bytes[absPath] = b
	s.mu.Unlock()
	return b, nil
}
