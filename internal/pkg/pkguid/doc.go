// Package pkguid generates the identifiers used across the server: note
// and import ids, request correlation ids and token ids.
//
// Callers depend on StringID so the strategy (UUID or Snowflake) is chosen
// once at startup from configuration.
package pkguid
