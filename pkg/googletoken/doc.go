// Package googletoken verifies Google-issued ID tokens.
//
// Tokens are RS256 JWTs signed with keys from Google's JWKS endpoint.
// The verifier caches the key set and checks signature, expiry, issuer,
// and audience. It performs no network calls other than the key fetch.
package googletoken
