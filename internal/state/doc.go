// Package state handles parsing and writing of the .grabcad.yaml state file.
// The state file records the project a directory is bound to and the log of
// commits that have been applied locally, enabling incremental pulls.
package state
