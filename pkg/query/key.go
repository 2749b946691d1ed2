package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// codec encodes keys and cached values. ConfigStd sorts map keys, which keeps
// key strings deterministic.
var codec = sonic.ConfigStd

// Key identifies a query: a domain tag, an operation tag and the
// parameters the result depends on.
//
// Two keys are the same query when their elements are equal by value, so a
// freshly built request struct with the same fields yields the same key.
type Key []any

// String returns the deterministic JSON encoding of the key. It is the
// identity used by stores and the singleflight group.
func (k Key) String() string {
	if k == nil {
		return "[]"
	}
	data, err := codec.Marshal([]any(k))
	if err == nil {
		return string(data)
	}

	// Values JSON cannot represent (NaN, Inf, channels) are named by their
	// Go syntax as a JSON string, keeping the array shape prefix matching
	// relies on.
	var b strings.Builder
	b.WriteByte('[')
	for i, part := range k {
		if i > 0 {
			b.WriteByte(',')
		}
		if enc, err := codec.Marshal(part); err == nil {
			b.Write(enc)
		} else {
			b.WriteString(strconv.Quote(fmt.Sprintf("%#v", part)))
		}
	}
	b.WriteByte(']')
	return b.String()
}

// Equal reports whether k and other identify the same query.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.String() == other.String()
}

// HasPrefix reports whether the leading elements of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return matchPrefix(k.String(), prefix.String())
}

// Append returns a new key with parts added after the elements of k.
// k itself is never modified.
func (k Key) Append(parts ...any) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// matchPrefix compares encoded keys. Top-level elements are comma separated,
// so a prefix matches when the key equals it or continues it with a comma.
func matchPrefix(key, prefix string) bool {
	if prefix == "[]" {
		return true
	}
	if key == prefix {
		return true
	}
	body := strings.TrimSuffix(prefix, "]")
	return strings.HasPrefix(key, body+",")
}
