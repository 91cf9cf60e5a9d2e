// Package cache provides conversion result caching.
//
// Converting a large shading network is cheap compared to most pipelines,
// but conversion services run it per request; caching the serialized
// document keyed by the snapshot content and conversion options makes
// repeated requests free. Backends: files for CLI usage, Redis for hosted
// deployments, null to disable.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Default expirations per entry kind. Graphs key off snapshot content and
// documents key off graph content, so stale entries are impossible; the
// TTLs only bound disk and Redis growth.
const (
	TTLGraph    = 24 * time.Hour
	TTLDocument = 7 * 24 * time.Hour
)

// Cache is the storage backend interface. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DocumentKeyOpts are the conversion options that change the output for
// the same input snapshot, so they participate in the cache key.
type DocumentKeyOpts struct {
	RuleSet string `json:"rule_set"`

	// RulesHash is the content fingerprint of a file-loaded rule set.
	// Without it, editing a rule file that keeps its name would serve
	// documents mapped by the old rules.
	RulesHash string `json:"rules_hash,omitempty"`

	Policy string   `json:"policy"`
	Roots  []string `json:"roots"`
}

// Keyer generates cache keys.
type Keyer interface {
	// SnapshotKey keys an extracted graph by its snapshot content hash.
	SnapshotKey(snapshotHash string, roots []string) string

	// DocumentKey keys a serialized document by the graph content hash
	// and the conversion options.
	DocumentKey(graphHash string, opts DocumentKeyOpts) string
}

// DefaultKeyer generates hashed, prefix-typed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey generates a key for graph extraction results.
func (k *DefaultKeyer) SnapshotKey(snapshotHash string, roots []string) string {
	return hashKey("graph", snapshotHash, roots)
}

// DocumentKey generates a key for serialized documents.
func (k *DefaultKeyer) DocumentKey(graphHash string, opts DocumentKeyOpts) string {
	return hashKey("doc", graphHash, opts)
}

// ScopedKeyer prefixes another keyer's keys, isolating tenants that share
// one backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SnapshotKey generates a prefixed graph key.
func (k *ScopedKeyer) SnapshotKey(snapshotHash string, roots []string) string {
	return k.prefix + k.inner.SnapshotKey(snapshotHash, roots)
}

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(graphHash string, opts DocumentKeyOpts) string {
	return k.prefix + k.inner.DocumentKey(graphHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes the SHA-256 hash of data as a 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
