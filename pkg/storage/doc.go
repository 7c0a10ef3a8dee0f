// Package storage writes command output to disk.
//
// Manager keeps one file per key in a directory, written atomically through
// a temporary file and a rename. It scans the directory on creation so a
// batch run that was interrupted can skip the keys it already finished.
//
// Appender is an append-only, one-record-per-line file. The stream command
// uses it to store every received object as a line of compact JSON.
//
// Usage:
//
//	manager, err := storage.NewManager("out", ".followers")
//	if err != nil {
//	    return err
//	}
//	if !manager.IsSaved("jack") {
//	    err = manager.Save(strings.NewReader("12\n13\n"), "jack")
//	}
package storage
