// Package trust implements the stateless identity mechanism shared by every
// service: a signed token codec, a guard that turns an Authorization header
// into a Principal, and the authorization rule applied to that principal.
//
// Nothing in this package performs I/O. A consuming service needs only the
// shared signing secret and the token lifetime:
//
//	codec, err := trust.NewCodec(trust.Config{Secret: secret, TTL: 24 * time.Hour})
//	guard := trust.NewGuard(codec)
//	principal, err := guard.Authenticate(req.Header.Get("Authorization"))
package trust
