// Package log provides leveled logging for qadmin.
//
// Levels are DEBUG, INFO, WARN and ERROR. Debug lines are only written in
// verbose mode. Output defaults to stderr; the interactive TUI redirects it
// to a file (or discards it) because it owns the terminal.
//
//	log.SetVerbose(true)
//	log.Infof("fetching page %d", page)
//	log.Errorf("save failed: %v", err)
package log
