// Package app wires configuration, the task backend, the store and the UI.
//
// # Startup
//
//  1. Load .env from the working directory, then ~/.config/ticklist/config.toml
//  2. Open the log file; the TUI owns the terminal
//  3. Load view preferences (theme, filter, sort)
//  4. Open the backend (sqlite, docstore or firestore) and build state.Store
//  5. Start the background poller when sync_interval is set
//  6. Run the TUI until the user quits or the context is cancelled
//
// The session's first Activate performs the initial load; the UI triggers
// it from Init so the screen appears before the backend answers.
//
// # Background reloads
//
// StartPoller reloads the store every sync_interval. Loads merge remote
// documents into local state, so in-flight edits are never overwritten.
// Consecutive failures double the wait up to five minutes.
//
// Open is shared with the headless CLI subcommands in cmd/ticklist.
package app
