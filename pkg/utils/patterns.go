package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

// PatternMatcher matches root-relative slash paths against glob patterns.
// Each source pattern is expanded into variants (so "*.o" also matches in
// subdirectories and "build/" covers the whole subtree), but matches are
// always reported in terms of the original pattern.
type PatternMatcher struct {
	entries []patternEntry
}

type patternEntry struct {
	source  string
	regexps []*regexp.Regexp
}

// NewPatternMatcher creates a new pattern matcher
func NewPatternMatcher(patterns []string) (*PatternMatcher, error) {
	pm := &PatternMatcher{
		entries: make([]patternEntry, 0, len(patterns)),
	}

	for _, pattern := range patterns {
		entry := patternEntry{source: pattern}
		for _, variant := range expandPattern(pattern) {
			regex, err := globToRegex(variant)
			if err != nil {
				return nil, err
			}
			entry.regexps = append(entry.regexps, regex)
		}
		pm.entries = append(pm.entries, entry)
	}

	return pm, nil
}

// Empty reports whether the matcher holds no patterns.
func (pm *PatternMatcher) Empty() bool {
	return len(pm.entries) == 0
}

// Match checks if a path matches any pattern
func (pm *PatternMatcher) Match(path string) bool {
	_, ok := pm.BestMatch(path)
	return ok
}

// BestMatch returns the most specific (longest) source pattern matching
// the path. Paths are compared with forward slashes.
func (pm *PatternMatcher) BestMatch(path string) (string, bool) {
	path = filepath.ToSlash(path)

	best := ""
	found := false
	for _, entry := range pm.entries {
		for _, regex := range entry.regexps {
			if regex.MatchString(path) {
				if !found || len(entry.source) > len(best) {
					best = entry.source
					found = true
				}
				break
			}
		}
	}

	return best, found
}

// expandPattern derives the matching variants of a raw config pattern:
//   - "build/" and bare names cover the directory itself and everything
//     beneath it, at any depth
//   - relative file globs ("*.o") match at any depth
//   - patterns containing a separator stay anchored to the root
func expandPattern(pattern string) []string {
	pattern = filepath.ToSlash(pattern)
	pattern = strings.TrimPrefix(pattern, "./")

	dirPattern := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")
	if pattern == "" {
		return nil
	}

	if dirPattern || (!strings.Contains(pattern, "/") && !IsGlobPattern(pattern)) {
		return []string{
			pattern,
			pattern + "/**",
			"**/" + pattern,
			"**/" + pattern + "/**",
		}
	}

	if !strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**") {
		return []string{pattern, "**/" + pattern}
	}

	return []string{pattern}
}

// globToRegex converts a glob pattern to a regular expression
func globToRegex(pattern string) (*regexp.Regexp, error) {
	pattern = filepath.ToSlash(pattern)

	var regex strings.Builder
	regex.WriteString("^")

	i := 0
	for i < len(pattern) {
		switch pattern[i] {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				// ** matches any number of directories
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					regex.WriteString("(?:.*/)?")
					i += 3 // Skip **/
				} else {
					regex.WriteString(".*")
					i += 2 // Skip **
				}
			} else {
				// * matches any characters except /
				regex.WriteString("[^/]*")
				i++
			}
		case '?':
			// ? matches any single character except /
			regex.WriteString("[^/]")
			i++
		case '[':
			// Character class
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				regex.WriteString("[^")
				j++
			} else {
				regex.WriteString("[")
			}

			for j < len(pattern) && pattern[j] != ']' {
				if pattern[j] == '\\' && j+1 < len(pattern) {
					regex.WriteByte(pattern[j])
					regex.WriteByte(pattern[j+1])
					j += 2
				} else {
					regex.WriteByte(pattern[j])
					j++
				}
			}

			if j < len(pattern) {
				regex.WriteByte(']')
				i = j + 1
			} else {
				// Unclosed bracket, treat as literal
				regex.WriteString("\\[")
				i++
			}
		case '\\':
			// Escape character
			if i+1 < len(pattern) {
				regex.WriteByte('\\')
				regex.WriteByte(pattern[i+1])
				i += 2
			} else {
				regex.WriteString("\\\\")
				i++
			}
		case '.', '+', '^', '$', '(', ')', '{', '}', '|':
			// Escape regex special characters
			regex.WriteByte('\\')
			regex.WriteByte(pattern[i])
			i++
		default:
			regex.WriteByte(pattern[i])
			i++
		}
	}

	regex.WriteString("$")

	return regexp.Compile(regex.String())
}

// IsGlobPattern checks if a string contains glob wildcards
func IsGlobPattern(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
