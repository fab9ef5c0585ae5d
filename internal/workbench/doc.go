// Package workbench defines the GrabCAD Workbench domain types shared by the
// API client, the state file, and the sync engine: projects, organisations,
// users, commits, and the file tree.
package workbench
