// Package globals provides the per-session global variable store and $VAR substitution.
package globals

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Sigil marks a variable reference inside parameter text.
const Sigil = "$"

// ErrInvalidGlobalKey is returned when a key fails validation.
var ErrInvalidGlobalKey = errors.New("invalid global key")

var (
	keyPattern       = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
	referencePattern = regexp.MustCompile(`\$(?:\{([A-Za-z_][A-Za-z0-9_]*)\}|([A-Za-z_][A-Za-z0-9_]*))`)
)

// Store maps upper-case keys to ordered string lists.
type Store struct {
	mu     sync.RWMutex
	values map[string][]string
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[string][]string)}
}

// NormalizeKey upper-cases key and validates it.
func NormalizeKey(key string) (string, error) {
	if strings.HasPrefix(key, Sigil) {
		return "", fmt.Errorf("%w: %q must not start with %q", ErrInvalidGlobalKey, key, Sigil)
	}

	normalized := strings.ToUpper(strings.TrimSpace(key))
	if len(normalized) < 2 {
		return "", fmt.Errorf("%w: %q must be at least 2 characters", ErrInvalidGlobalKey, key)
	}

	if !keyPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q must be an identifier", ErrInvalidGlobalKey, key)
	}

	return normalized, nil
}

// IsInvalidGlobalKey reports whether err is a key validation error.
func IsInvalidGlobalKey(err error) bool {
	return errors.Is(err, ErrInvalidGlobalKey)
}

// Set stores a copy of value under key.
func (s *Store) Set(key string, value []string) error {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[normalized] = slices.Clone(nonNil(value))

	return nil
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]string, bool) {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[normalized]
	if !ok {
		return nil, false
	}

	return slices.Clone(value), true
}

// Delete removes key, reporting whether it was present.
func (s *Store) Delete(key string) (bool, error) {
	normalized, err := NormalizeKey(key)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.values[normalized]
	delete(s.values, normalized)

	return ok, nil
}

// FlushAll removes every key.
func (s *Store) FlushAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string][]string)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}

// Snapshot returns a deep copy of the store contents.
func (s *Store) Snapshot() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.values))
	for k, v := range s.values {
		out[k] = slices.Clone(v)
	}

	return out
}

// Restore replaces the store contents with a deep copy of values.
// Keys are not re-validated; values is expected to come from Snapshot.
func (s *Store) Restore(values map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string][]string, len(values))
	for k, v := range values {
		s.values[k] = slices.Clone(nonNil(v))
	}
}

// Substitute replaces every $NAME or ${NAME} reference in text with the space-joined value
// of NAME. It is a single pass: substituted text is not scanned again. Names of undefined
// variables are returned in order of first appearance and substitute to the empty string.
func (s *Store) Substitute(text string) (string, []string) {
	if !strings.Contains(text, Sigil) {
		return text, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []string

	result := referencePattern.ReplaceAllStringFunc(text, func(ref string) string {
		name := strings.ToUpper(referenceName(ref))

		value, ok := s.values[name]
		if !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}

			return ""
		}

		return strings.Join(value, " ")
	})

	return result, missing
}

// References returns the normalized names referenced by text, without duplicates.
func References(text string) []string {
	if !strings.Contains(text, Sigil) {
		return nil
	}

	var names []string

	for _, ref := range referencePattern.FindAllString(text, -1) {
		name := strings.ToUpper(referenceName(ref))
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

func referenceName(ref string) string {
	m := referencePattern.FindStringSubmatch(ref)
	if m[1] != "" {
		return m[1]
	}

	return m[2]
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}

	return v
}
