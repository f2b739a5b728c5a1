package types

import (
	"regexp"
	"sort"
	"strings"
)

var namePattern = regexp.MustCompile(`^[\w_]+$`)

// ValidateName reports whether name is a legal database, table or column
// identifier.
func ValidateName(name string) bool {
	return namePattern.MatchString(name)
}

// ValidateColNames reports whether every field carries a legal name.
func ValidateColNames(cols []FieldSchema) bool {
	for _, c := range cols {
		if !ValidateName(c.Name) {
			return false
		}
	}
	return true
}

// PartitionKeyCollision returns the first partition key that shares a name
// with a column, or "" when the two sets are disjoint.
func PartitionKeyCollision(cols, keys []FieldSchema) string {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		seen[strings.ToLower(c.Name)] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := seen[strings.ToLower(k.Name)]; ok {
			return k.Name
		}
	}
	return ""
}

// CompilePattern turns a table-name pattern into a case-insensitive
// matcher. "|" separates alternatives and "*" matches any run of
// characters. An empty pattern matches everything.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = "*"
	}
	alts := strings.Split(pattern, "|")
	for i, alt := range alts {
		alts[i] = strings.ReplaceAll(strings.TrimSpace(alt), "*", ".*")
	}
	re, err := regexp.Compile("(?i)^(?:" + strings.Join(alts, "|") + ")$")
	if err != nil {
		return nil, NewSystemFailure(err, "invalid table name pattern %q", pattern)
	}
	return re, nil
}

// FilterNames returns the sorted subset of names matching pattern.
func FilterNames(names []string, pattern string) ([]string, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if re.MatchString(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}
