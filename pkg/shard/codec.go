package shard

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes an adjacency mapping into the shard payload format:
// a msgpack map of source word -> (successor word -> weight).
// It is the inverse of Decode and exists for the build tooling and tests.
func Encode(pairs map[string]map[string]int) ([]byte, error) {
	return msgpack.Marshal(pairs)
}

// Decode parses and validates a shard payload.
//
// Validation is atomic: any duplicate successor key, duplicate source word
// or non-positive weight rejects the entire shard with a FormatError.
// The map headers are walked by hand because a plain map decode would
// silently collapse duplicate keys instead of reporting them.
func Decode(id ID, payload []byte) (*Shard, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))

	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, &FormatError{ID: id, Reason: "payload is not a map", cause: err}
	}

	pairs := make(map[string]map[string]int, n)
	for i := 0; i < n; i++ {
		word, err := dec.DecodeString()
		if err != nil {
			return nil, &FormatError{ID: id, Reason: "source word is not a string", cause: err}
		}
		if _, dup := pairs[word]; dup {
			return nil, &FormatError{ID: id, Reason: fmt.Sprintf("duplicate source word %q", word)}
		}

		m, err := dec.DecodeMapLen()
		if err != nil {
			return nil, &FormatError{ID: id, Reason: fmt.Sprintf("successors of %q are not a map", word), cause: err}
		}

		succ := make(map[string]int, m)
		for j := 0; j < m; j++ {
			next, err := dec.DecodeString()
			if err != nil {
				return nil, &FormatError{ID: id, Reason: fmt.Sprintf("successor key under %q is not a string", word), cause: err}
			}
			if _, dup := succ[next]; dup {
				return nil, &FormatError{ID: id, Reason: fmt.Sprintf("duplicate successor %q under %q", next, word)}
			}

			weight, err := dec.DecodeInt()
			if err != nil {
				return nil, &FormatError{ID: id, Reason: fmt.Sprintf("weight of %q -> %q is not an integer", word, next), cause: err}
			}
			if weight <= 0 {
				return nil, &FormatError{ID: id, Reason: fmt.Sprintf("non-positive weight %d for %q -> %q", weight, word, next)}
			}
			succ[next] = weight
		}
		pairs[word] = succ
	}

	return &Shard{ID: id, Pairs: pairs}, nil
}
