package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/terralite-io/terralite/internal/ir"
)

// FileStore persists the state document as a JSON file. Every mutation
// is a read-modify-write flushed via temp file + rename, so a crashed
// writer never leaves a torn document behind.
type FileStore struct {
	path   string
	cipher *stateCipher

	// mu serializes document flushes within this process. Per-address
	// writers contend only here, not on each other's provider calls.
	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return NewFileStoreWithKey(path, "")
}

// NewFileStoreWithKey encrypts the document at rest with the given key.
// An empty key falls back to TERRALITE_STATE_ENCRYPTION_KEY; with
// neither set the document stays plaintext.
func NewFileStoreWithKey(path, key string) *FileStore {
	return &FileStore{path: path, cipher: newStateCipher(key)}
}

func (f *FileStore) load() (*ir.State, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			s := ir.NewState()
			s.Lineage = uuid.NewString()
			return s, nil
		}
		return nil, &StateUnavailableError{Op: "read", Cause: err}
	}
	s, err := decodeState(raw, f.cipher)
	if err != nil {
		return nil, &StateUnavailableError{Op: "read", Cause: err}
	}
	return s, nil
}

func (f *FileStore) flush(s *ir.State) error {
	raw, err := encodeState(s, f.cipher)
	if err != nil {
		return &StateUnavailableError{Op: "write", Cause: err}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StateUnavailableError{Op: "write", Cause: err}
	}

	tmp, err := os.CreateTemp(dir, ".terralite-state-*")
	if err != nil {
		return &StateUnavailableError{Op: "write", Cause: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StateUnavailableError{Op: "write", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StateUnavailableError{Op: "write", Cause: err}
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return &StateUnavailableError{Op: "write", Cause: err}
	}
	return nil
}

func (f *FileStore) Get(ctx context.Context, addr string) (*ir.ResourceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return nil, err
	}
	rec := s.Find(addr)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, addr)
	}
	return rec.Clone(), nil
}

func (f *FileStore) Put(ctx context.Context, addr string, rec *ir.ResourceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return err
	}
	clone := rec.Clone()
	clone.Address = addr
	s.Upsert(clone)
	s.Serial++
	return f.flush(s)
}

func (f *FileStore) Remove(ctx context.Context, addr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return err
	}
	if !s.Remove(addr) {
		return nil
	}
	s.Serial++
	return f.flush(s)
}

func (f *FileStore) List(ctx context.Context) ([]*ir.ResourceRecord, error) {
	s, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]*ir.ResourceRecord, len(s.Resources))
	copy(recs, s.Resources)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Address < recs[j].Address })
	return recs, nil
}

func (f *FileStore) Snapshot(ctx context.Context) (*ir.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *FileStore) WriteSnapshot(ctx context.Context, s *ir.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	if current.Serial != s.Serial {
		return &StateConflictError{Expected: s.Serial, Found: current.Serial}
	}
	doc := s.Clone()
	doc.Serial++
	if doc.Lineage == "" {
		doc.Lineage = current.Lineage
	}
	return f.flush(doc)
}
