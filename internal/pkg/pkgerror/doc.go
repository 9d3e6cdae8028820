// Package pkgerror defines the classified error type and sentinel errors used
// across the server.
//
// Errors fall into two groups:
//   - Classified errors (*Error) carry a user-facing message and an HTTP
//     status. The dispatcher turns them into plain-text responses verbatim.
//   - Everything else is unclassified and answered with a 500.
//
// Configuration errors are also *Error values, but they are returned at
// registration time and are expected to abort startup.
package pkgerror
