// Package history records executed calculations with linear undo and redo.
//
// A [Store] keeps two sequences of [Record] values: the executed sequence and
// the redo sequence. Appending a record clears the redo sequence, so history
// never branches. Undo moves the executed tail to the redo sequence and redo
// moves it back; both report false when there is nothing to move.
//
// A Store belongs to one session and is not safe for concurrent use.
//
// # Usage
//
//	store := history.NewStore()
//	rec, err := history.NewRecord(lib, operation.Add, a, b)
//	if err == nil {
//	    store.Append(rec)
//	}
//	if last, ok := store.Undo(); ok {
//	    fmt.Println("undid", last)
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package history
