// Package registry maps command names to commands and populates the mapping
// from plugin sources.
//
// # Discovery
//
// [Registry.Discover] loads each [Source] in turn. A source that returns an
// error or panics is recorded as a [Failure] and skipped; the remaining
// sources still load. Every command a source yields is registered under a
// name derived from its declared type name (see [DeriveName]). When two
// commands derive the same name the later registration wins and a warning is
// logged.
//
// The registry is owned by one session and is not safe for concurrent use.
package registry
