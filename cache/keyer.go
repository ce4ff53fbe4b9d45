package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Keyer derives string cache keys for memoized functions of arbitrary input.
//
// Contract:
// - Determinism: equal inputs yield equal keys regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from a namespace and the function input.
	Key(namespace string, input any) (string, error)
}

// DefaultKeyer derives SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic cache key.
// Format: memo:<namespace>:<hash>
// where hash is the first 16 hex characters of SHA-256(canonical JSON(input)).
func (k *DefaultKeyer) Key(namespace string, input any) (string, error) {
	if strings.ContainsAny(namespace, ":\n\r") {
		return "", fmt.Errorf("%w: namespace %q", ErrInvalidKey, namespace)
	}

	canonical, err := canonicalize(input)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize input: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return "memo:" + namespace + ":" + hex.EncodeToString(sum[:8]), nil
}

// canonicalize produces a deterministic JSON encoding of v. Nested
// map[string]any and []any values are walked so object keys come out sorted.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// encoding/json already sorts keys of typed maps.
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
