// Package firestore implements the task service on Cloud Firestore's REST
// API.
//
// Each task is one document in projects/{p}/databases/{db}/documents/{c}.
// The document identifier is assigned by Firestore and is not stored in the
// body. Fields:
//
//	text       stringValue
//	completed  booleanValue
//	deadline   stringValue "YYYY-MM-DD", or nullValue when unset
//	createdAt  stringValue, ISO-8601 with milliseconds in UTC
//
// Updates use an update mask so only the changed fields are written, and
// require the document to exist so a stale update cannot recreate a deleted
// task. Errors wrap *googleapi.Error, and a 404 also matches
// task.ErrNoDocument.
//
// Point Config.Endpoint at the Firestore emulator (host:port) for local
// work; the emulator accepts the access token "owner".
package firestore
