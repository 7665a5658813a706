// Package log provides the structured logging abstraction used by abacus.
//
// Components depend on the [Logger] interface and receive an implementation
// by injection. [New] builds a zerolog-backed logger from [Options]; a
// [NoopLogger] is provided for tests and embedding.
//
//	logger, closer, err := log.New(log.Options{Level: "debug", Output: "logs/abacus.log"})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	logger.Info("registered command", log.String("command", "add"))
//
// Logs never carry user-facing output; calculation results and diagnostics
// are written to the session writer instead.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
