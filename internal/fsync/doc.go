// Package fsync applies remote GrabCAD commits to a local directory tree:
// it resolves the latest change per file across a commit range, downloads
// added and updated files, removes deleted ones, and protects files that were
// modified locally since the last pull.
package fsync
