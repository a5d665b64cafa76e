package shard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Store gives addressable, read-only access to raw shard payloads.
// Implementations do not parse or validate content.
type Store interface {
	// Fetch returns the raw payload for the given shard id.
	// It returns an error wrapping ErrNotFound when no artifact backs the id.
	Fetch(ctx context.Context, id ID) ([]byte, error)
}

// payloadPattern is the artifact naming scheme produced by the index build.
const payloadPattern = "pair_%04d.bin"

// DirStore serves shard payloads from files in a local directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a store reading pair_NNNN.bin files from dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Fetch reads the payload file for id.
func (s *DirStore) Fetch(ctx context.Context, id ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, fmt.Sprintf(payloadPattern, int(id)))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("shard %d (%s): %w", id, path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read shard %d: %w", id, err)
	}
	return data, nil
}

// Available scans the directory for shard payload files and returns their
// ids in ascending order.
func (s *DirStore) Available() ([]ID, error) {
	pattern := filepath.Join(s.dir, "pair_*.bin")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for shard files: %w", err)
	}

	var ids []ID
	for _, file := range files {
		basename := filepath.Base(file)
		idStr := strings.TrimPrefix(basename, "pair_")
		idStr = strings.TrimSuffix(idStr, ".bin")
		id, err := strconv.Atoi(idStr)
		if err != nil {
			log.Warnf("Skipping shard file with malformed name: %s", basename)
			continue
		}
		ids = append(ids, ID(id))
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// MemStore keeps shard payloads in memory. It counts fetches per id, which
// tests use to observe reload behavior.
type MemStore struct {
	mu       sync.RWMutex
	payloads map[ID][]byte
	fetches  map[ID]int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		payloads: make(map[ID][]byte),
		fetches:  make(map[ID]int),
	}
}

// Put registers a payload under id, replacing any previous one.
func (s *MemStore) Put(id ID, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[id] = payload
}

// Fetch returns the payload registered under id.
func (s *MemStore) Fetch(ctx context.Context, id ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fetches[id]++
	payload, ok := s.payloads[id]
	if !ok {
		return nil, fmt.Errorf("shard %d: %w", id, ErrNotFound)
	}
	return payload, nil
}

// Fetches reports how many times id has been fetched.
func (s *MemStore) Fetches(id ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetches[id]
}
