// Package api implements the GrabCAD Workbench HTTP client: session login,
// project and organisation metadata, commit history, the project file tree,
// and parallel file transfer.
package api
