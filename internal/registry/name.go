package registry

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/bft-labs/abacus/internal/command"
)

// commandSuffix is stripped from type names before deriving a command name.
const commandSuffix = "Command"

var baseType = reflect.TypeOf(command.Arithmetic{})

// DeriveName turns a declared type name into a command name: the "Command"
// suffix is removed and CamelCase words are lower-cased and joined with
// underscores.
//
//	AddCommand       -> add
//	IntDivideCommand -> int_divide
//	Abs_diffCommand  -> abs_diff
func DeriveName(typeName string) string {
	base := strings.TrimSuffix(typeName, commandSuffix)
	runes := []rune(base)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NameOf returns the registry name for cmd, or "" when cmd is the base
// arithmetic type or an anonymous type.
func NameOf(cmd command.Command) string {
	if n, ok := cmd.(command.Named); ok {
		return DeriveName(n.TypeName())
	}
	t := reflect.TypeOf(cmd)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == baseType {
		return ""
	}
	return DeriveName(t.Name())
}
