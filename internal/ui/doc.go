// Package ui is ticklist's Bubble Tea front end.
//
// The Model never talks to a backend itself. Every key that changes a task
// calls an intent on state.Store, re-reads the snapshot so the change shows
// at once, and returns a command that commits the operation. When the
// commit message comes back the snapshot is read again, which picks up a
// rollback and the footer error if the remote call failed.
//
// Files:
//
//   - app.go: Model, Update loop, commands and Run
//   - form.go: add/edit modal with text and YYYY-MM-DD deadline inputs
//   - header.go: status bar, filter tabs and footer
//   - list.go: task rows, deadline badges and empty states
//   - theme.go: palettes and Lipgloss styles
//   - keys.go, help.go: key map and help overlay
package ui
