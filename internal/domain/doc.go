// Package domain holds the error vocabulary shared by the abacus session,
// command, registry and plugin layers.
//
// Arithmetic domain errors (division by zero and friends) live next to the
// operation library in pkg/operation; the errors here describe everything
// around the arithmetic: parsing, usage, lookup, plugin loading and
// configuration.
package domain
