// Package pkgauth provides the process-wide authentication hooks used by
// the router: a bearer-token verifier, a sliding-session signer and a login
// hook that issues the first token. Tokens are HMAC-SHA256 JWTs.
//
// Credentials checks usernames and bcrypt password hashes loaded from
// configuration for the login route.
package pkgauth
