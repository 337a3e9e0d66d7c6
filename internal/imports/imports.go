// Copyright 2024 The zb Authors
// SPDX-License-Identifier: MIT

// Package imports implements the import resolver: a single textual scan
// of already-unparsed source text for references to standard-library
// modules, prepending the minimal import set required. The scan never
// removes existing imports and runs exactly once.
package imports

import (
	"regexp"
	"sort"
	"strings"
)

// stdlibModules are the standard-library prefixes the resolver recognizes.
var stdlibModules = []string{"math", "os", "time", "re", "sys", "tempfile", "gc", "locale", "random"}

var moduleRefPattern = regexp.MustCompile(`\b(` + strings.Join(stdlibModules, "|") + `)\.`)

// IsStdlibModule reports whether name is one of the standard-library
// prefixes the resolver recognizes, so callers (the luatrancli
// require-path preflight check) can skip warning about modules that were
// never expected to resolve to a same-directory file.
func IsStdlibModule(name string) bool {
	for _, m := range stdlibModules {
		if m == name {
			return true
		}
	}
	return false
}

// Resolve scans src for standard-library module references and prepends
// one `import <module>` line per module referenced, sorted by module name
// so output is deterministic. It does not touch any import
// statement already present in src.
func Resolve(src string) string {
	return ResolveWithOverrides(src, nil)
}

// ResolveWithOverrides behaves like [Resolve], except a module present as
// a key in overrides is imported under the replacement line given as its
// value instead of a plain `import <module>` — a project's `.luatran.jsonc`
// can use this to redirect a standard-library reference to a local shim.
func ResolveWithOverrides(src string, overrides map[string]string) string {
	matches := moduleRefPattern.FindAllStringSubmatch(src, -1)
	if len(matches) == 0 {
		return src
	}
	seen := make(map[string]bool)
	for _, m := range matches {
		seen[m[1]] = true
	}

	var needed []string
	for _, mod := range stdlibModules {
		if seen[mod] {
			needed = append(needed, mod)
		}
	}
	sort.Strings(needed)

	var b strings.Builder
	for _, mod := range needed {
		if line, ok := overrides[mod]; ok {
			b.WriteString(line + "\n")
		} else {
			b.WriteString("import " + mod + "\n")
		}
	}
	b.WriteString(src)
	return b.String()
}
