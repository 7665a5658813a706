// Package script loads user-defined commands from a plugin directory.
//
// Every regular file in the directory is one plugin source, so a malformed
// file only takes itself out of discovery:
//
//   - *.toml, *.yaml, *.yml describe an alias of a library operation,
//     optionally with a fixed right operand:
//
//     type = "DoubleCommand"
//     operation = "multiply"
//     right = "2"
//
//   - *.lua scripts set the globals command, arity (optional) and symbol
//     (optional) and define calculate:
//
//     command = "CubeCommand"
//     arity = 1
//     function calculate(a) return a * a * a end
//
// Files with other extensions are ignored. Loading a script and each call
// of calculate are cut off after DefaultExecutionTimeout.
package script
