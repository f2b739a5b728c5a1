package warehouse

import (
	"path"
	"strings"

	"github.com/gear6io/metastore/pkg/errors"
)

// Path is a slash separated location, optionally qualified with a scheme
// and authority ("s3://bucket/key", "file:///data/wh").
type Path struct {
	Scheme    string
	Authority string
	Path      string
}

// ParsePath splits s into scheme, authority and path. Escaped partition
// names are kept verbatim: no percent decoding happens here.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, errors.New(WarehouseInvalidPath, "empty path", nil)
	}

	var p Path
	if i := strings.Index(s, ":"); i > 1 && isScheme(s[:i]) {
		p.Scheme = strings.ToLower(s[:i])
		rest := s[i+1:]
		if strings.HasPrefix(rest, "//") {
			rest = rest[2:]
			j := strings.Index(rest, "/")
			if j < 0 {
				p.Authority, rest = rest, "/"
			} else {
				p.Authority, rest = rest[:j], rest[j:]
			}
		}
		if !strings.HasPrefix(rest, "/") {
			return Path{}, errors.New(WarehouseInvalidPath, "qualified path must be absolute", nil).AddContext("path", s)
		}
		s = rest
	}

	p.Path = clean(s)
	return p, nil
}

func isScheme(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func clean(p string) string {
	if p == "" {
		return ""
	}
	c := path.Clean(p)
	if c == "." {
		return ""
	}
	return c
}

func (p Path) IsAbs() bool {
	return strings.HasPrefix(p.Path, "/")
}

func (p Path) IsQualified() bool {
	return p.Scheme != "" && p.IsAbs()
}

// Join appends elements, which may themselves contain separators.
func (p Path) Join(elem ...string) Path {
	parts := append([]string{p.Path}, elem...)
	p.Path = clean(path.Join(parts...))
	return p
}

// Parent returns the enclosing directory. The root is its own parent.
func (p Path) Parent() Path {
	p.Path = path.Dir(p.Path)
	return p
}

// Name returns the last element of the path.
func (p Path) Name() string {
	if p.Path == "/" {
		return ""
	}
	return path.Base(p.Path)
}

// IsUnder reports whether p equals other or lives below it.
func (p Path) IsUnder(other Path) bool {
	if p.Scheme != other.Scheme || p.Authority != other.Authority {
		return false
	}
	if p.Path == other.Path || other.Path == "/" {
		return true
	}
	return strings.HasPrefix(p.Path, other.Path+"/")
}

func (p Path) String() string {
	if p.Scheme == "" {
		return p.Path
	}
	return p.Scheme + "://" + p.Authority + p.Path
}
