// Package config loads ticklist's TOML configuration.
//
// # Resolution
//
//  1. An explicit path, otherwise ~/.config/ticklist/config.toml.
//  2. A missing file is not an error; defaults are used.
//  3. TICKLIST_* environment variables override file values. LoadDotEnv can
//     populate the environment from a .env file first.
//  4. Empty or whitespace-only values fall back to defaults.
//
// # Example
//
//	backend = "firestore"          # sqlite (default), docstore or firestore
//	request_timeout = "10s"
//	sync_interval = "30s"          # reload from the backend; unset or 0 disables
//	log_file = "~/.local/state/ticklist/ticklist.log"
//	optimistic_add = false
//	clear_policy = "all"           # or "failed"
//
//	[firestore]
//	project_id = "my-project"
//	collection = "todos"
//	endpoint = "localhost:8080"    # emulator; FIRESTORE_EMULATOR_HOST also works
//	access_token = "owner"
//
//	[docstore]
//	addr = "127.0.0.1:7488"
//
//	[sqlite]
//	path = "~/.local/share/ticklist/tasks.sqlite3"
//
// Environment keys mirror the TOML keys, upper-cased with sections joined by
// an underscore: TICKLIST_BACKEND, TICKLIST_FIRESTORE_PROJECT_ID,
// TICKLIST_DOCSTORE_ADDR, TICKLIST_SQLITE_PATH and so on.
//
// Paths starting with ~ are expanded and made absolute.
package config
