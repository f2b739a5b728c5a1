package warehouse

import (
	"fmt"
	"strings"

	"github.com/gear6io/metastore/server/types"
)

var charToEscape [128]bool

func init() {
	for c := 0; c < ' '; c++ {
		charToEscape[c] = true
	}
	for _, c := range "\"#%'*/:=?\\\x7f{[]^" {
		charToEscape[c] = true
	}
}

func needsEscaping(c rune) bool {
	return c >= 0 && c < rune(len(charToEscape)) && charToEscape[c]
}

// EscapePathName percent-encodes every character that would change the
// meaning of a partition directory name.
func EscapePathName(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if needsEscaping(c) {
			fmt.Fprintf(&sb, "%%%02X", c)
		} else {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// UnescapePathName reverses EscapePathName. A '%' not followed by two hex
// digits is kept literally.
func UnescapePathName(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			sb.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// MakePartName builds the relative directory name of a partition:
// "k1=v1/k2=v2", keys lower-cased, both sides escaped.
func MakePartName(keys []string, values []string) (string, error) {
	if len(keys) != len(values) {
		return "", types.NewInvalidObject("invalid partition key & values: %d keys, %d values", len(keys), len(values))
	}
	if len(keys) == 0 {
		return "", types.NewInvalidObject("invalid partition key & values: table is not partitioned")
	}
	parts := make([]string, len(keys))
	for i := range keys {
		if values[i] == "" {
			return "", types.NewInvalidObject("invalid partition key & values: empty value for %s", keys[i])
		}
		parts[i] = EscapePathName(strings.ToLower(keys[i])) + "=" + EscapePathName(values[i])
	}
	return strings.Join(parts, "/"), nil
}

// PartSpec is an ordered key/value partition specification.
type PartSpec []PartSpecEntry

type PartSpecEntry struct {
	Key   string
	Value string
}

// Get returns the value for key and whether it was present.
func (s PartSpec) Get(key string) (string, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// MakeSpecFromName decodes a partition name produced by MakePartName.
func MakeSpecFromName(name string) (PartSpec, error) {
	var spec PartSpec
	for _, comp := range strings.Split(name, "/") {
		if comp == "" {
			continue
		}
		i := strings.LastIndex(comp, "=")
		if i <= 0 || i == len(comp)-1 {
			return nil, types.NewInvalidObject("partition name is invalid: %s", name)
		}
		k := UnescapePathName(comp[:i])
		v := UnescapePathName(comp[i+1:])
		if _, dup := spec.Get(k); dup {
			return nil, types.NewInvalidObject("partition name is invalid: key %s defined at two levels", k)
		}
		spec = append(spec, PartSpecEntry{Key: k, Value: v})
	}
	if len(spec) == 0 {
		return nil, types.NewInvalidObject("partition name is invalid: %q", name)
	}
	return spec, nil
}
