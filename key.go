package cacheable

import (
	"fmt"
	"strings"
)

// Scope namespaces cache keys. The zero value is ScopeGlobal.
type Scope uint8

const (
	// ScopeGlobal keys are shared across the whole deployment.
	ScopeGlobal Scope = iota
	// ScopeModule keys live under "<module>:".
	ScopeModule
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeModule:
		return "module"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// ParseScope maps the textual form ("global", "module") to a Scope.
// The empty string is global.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return ScopeGlobal, nil
	case "module":
		return ScopeModule, nil
	default:
		return ScopeGlobal, &ConfigError{Msg: fmt.Sprintf("unknown cache scope %q", s)}
	}
}

// KeyFunc computes a cache key from a base key, a scope and a module name.
type KeyFunc func(base string, scope Scope, module string) (string, error)

var _ KeyFunc = Key

const moduleRequiredMsg = "Module name is required for module scope"

// Key returns base for ScopeGlobal and module + ":" + base for ScopeModule.
// ScopeModule with an empty module fails with ErrInvalidConfiguration.
// An empty base is allowed.
func Key(base string, scope Scope, module string) (string, error) {
	switch scope {
	case ScopeGlobal:
		return base, nil
	case ScopeModule:
		if module == "" {
			return "", &ConfigError{Msg: moduleRequiredMsg}
		}
		return module + ":" + base, nil
	default:
		return "", &ConfigError{Msg: "unknown cache scope " + scope.String()}
	}
}

// PrefixedKey is Key with prefix prepended verbatim (no separator).
func PrefixedKey(base, prefix string, scope Scope, module string) (string, error) {
	k, err := Key(base, scope, module)
	if err != nil {
		return "", err
	}
	return prefix + k, nil
}
