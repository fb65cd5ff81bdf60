package observation

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyKeyValueKey is returned when a KeyValue is built with an empty key.
var ErrEmptyKeyValueKey = errors.New("key-value key must not be empty")

/***** KeyValue *****/

// KeyValue is an immutable name/value pair describing one dimension of an
// observed operation.
//
// While it can be constructed directly with KV, BuildKeyValue should be used
// whenever the key comes from input that has not been validated yet.
type KeyValue struct {
	key string
	val string
}

// KV creates a KeyValue from a key and a value.
//
// It performs no validation; KeyValues construction drops entries with an
// empty key, mirroring the input sanitization of the rest of the package.
func KV(key string, val string) KeyValue {
	return KeyValue{key: key, val: val}
}

// BuildKeyValue is a factory method for KeyValue.
//
// Returns ErrEmptyKeyValueKey if the key is empty.
func BuildKeyValue(key string, val string) (KeyValue, error) {
	if key == "" {
		return KeyValue{}, ErrEmptyKeyValueKey
	}

	return KeyValue{key: key, val: val}, nil
}

func (kv KeyValue) Key() string {
	return kv.key
}

func (kv KeyValue) Val() string {
	return kv.val
}

/***** KeyValues *****/

// KeyValues is an ordered collection of KeyValue with key uniqueness enforced.
//
// Construction and merging follow last-write-wins semantics: when the same key
// appears more than once, the later value replaces the earlier one while the
// key keeps its first-seen position.
type KeyValues struct {
	items []KeyValue
}

// BuildKeyValues creates a KeyValues collection from the given pairs.
//
// It sanitizes the input:
//   - removing KeyValue(s) with an empty key
//   - deduplicating by key, last value wins, first-seen ordering preserved
func BuildKeyValues(kvs ...KeyValue) KeyValues {
	items := make([]KeyValue, 0, len(kvs))
	positions := make(map[string]int, len(kvs))

	for _, kv := range kvs {
		if kv.key == "" {
			continue
		}

		if pos, seen := positions[kv.key]; seen {
			items[pos] = kv
			continue
		}

		positions[kv.key] = len(items)
		items = append(items, kv)
	}

	return KeyValues{items: slices.Clip(items)}
}

// And returns a new KeyValues containing the union of the receiver and other.
//
// Entries from other override same-keyed entries from the receiver; untouched
// keys keep their ordering and new keys are appended at the end.
func (k KeyValues) And(other KeyValues) KeyValues {
	combined := make([]KeyValue, 0, len(k.items)+len(other.items))
	combined = append(combined, k.items...)
	combined = append(combined, other.items...)

	return BuildKeyValues(combined...)
}

// Items returns the ordered entries of the collection.
func (k KeyValues) Items() []KeyValue {
	return k.items
}

// Len returns the number of entries in the collection.
func (k KeyValues) Len() int {
	return len(k.items)
}

// Value looks up the value stored for the given key.
func (k KeyValues) Value(key string) (string, bool) {
	for _, kv := range k.items {
		if kv.key == key {
			return kv.val, true
		}
	}

	return "", false
}

// ToMap converts the collection into a plain map, e.g. for label-based
// metrics backends.
func (k KeyValues) ToMap() map[string]string {
	if len(k.items) == 0 {
		return nil
	}

	labels := make(map[string]string, len(k.items))
	for _, kv := range k.items {
		labels[kv.key] = kv.val
	}

	return labels
}

// String renders the collection as "key1=val1, key2=val2" in item order.
func (k KeyValues) String() string {
	parts := make([]string, 0, len(k.items))
	for _, kv := range k.items {
		parts = append(parts, kv.key+"="+kv.val)
	}

	return strings.Join(parts, ", ")
}
