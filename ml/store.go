package ml

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"phenomap/schema"
)

const defaultStoreSize = 8

// Store keeps loaded models for the lifetime of the process. Each
// (schema, path) pair is read from disk at most once after a successful
// load as long as the store holds no more pairs than its size; an evicted
// model is read again on its next Get. Size the store to the number of
// configured models. Failed loads are not cached.
type Store struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, *Model]
	load   func(path string, s *schema.Schema) (*Model, error)
	logger *zap.Logger
}

func NewStore(size int, logger *zap.Logger) (*Store, error) {
	if size <= 0 {
		size = defaultStoreSize
	}
	cache, err := lru.New[string, *Model](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cache: cache, load: LoadModel, logger: logger}, nil
}

func (st *Store) Get(path string, s *schema.Schema) (*Model, error) {
	key := s.Name + "|" + path
	if m, ok := st.cache.Get(key); ok {
		return m, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if m, ok := st.cache.Get(key); ok {
		return m, nil
	}
	m, err := st.load(path, s)
	if err != nil {
		st.logger.Error("model load failed", zap.String("schema", s.Name), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	st.cache.Add(key, m)
	st.logger.Info("model loaded",
		zap.String("schema", s.Name),
		zap.String("path", path),
		zap.String("type", m.Type),
		zap.Ints("classes", m.Classes))
	return m, nil
}

func (st *Store) Len() int {
	return st.cache.Len()
}
