package store

import "sort"

// memKV is a trivial in-memory OrderedKVStore used by tests that don't
// need Pebble's durability, keeping the ValidatorStore tests fast and
// hermetic.
type memKV struct {
	data map[string][]byte
}

// NewMemKV constructs an in-memory OrderedKVStore.
func NewMemKV() OrderedKVStore {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Set(key, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *memKV) Get(key []byte) ([]byte, bool, error) {
	v, ok := m.data[string(key)]
	return v, ok, nil
}

func (m *memKV) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *memKV) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	p := string(prefix)
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if len(k) >= len(p) && k[:len(p)] == p {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), m.data[k]) {
			break
		}
	}
	return nil
}

func (m *memKV) Close() error { return nil }
