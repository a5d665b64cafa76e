package shard

import (
	"fmt"
	"hash/fnv"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// PartitionFunc maps a word to its owning shard id. The mapping is defined
// by the build pipeline that assigned words to shards; the runtime only
// consumes it to decide which shard a query must load. A false result means
// the word's owner cannot be resolved.
type PartitionFunc func(word string) (ID, bool)

// HashPartitioner buckets words by FNV-1a hash over a total shard count.
// It is the default scheme for builds that shard by stable hash.
func HashPartitioner(total int) PartitionFunc {
	return func(word string) (ID, bool) {
		if total <= 0 || word == "" {
			return 0, false
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		return ID(h.Sum32() % uint32(total)), true
	}
}

// TablePartitioner resolves owners from an explicit word -> id table
// published alongside the shards.
func TablePartitioner(table map[string]ID) PartitionFunc {
	return func(word string) (ID, bool) {
		id, ok := table[word]
		return id, ok
	}
}

// LoadPartitionTable reads a msgpack word -> id sidecar file, as emitted by
// builds that publish their partition table instead of a hash scheme.
func LoadPartitionTable(path string) (map[string]ID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition table %s: %w", path, err)
	}

	var raw map[string]int
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse partition table %s: %w", path, err)
	}

	table := make(map[string]ID, len(raw))
	for word, id := range raw {
		if id < 0 {
			return nil, fmt.Errorf("partition table %s: negative shard id %d for %q", path, id, word)
		}
		table[word] = ID(id)
	}
	return table, nil
}
