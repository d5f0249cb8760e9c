// Package advisor inspects the settings of a database administration tool and
// reports security and compatibility findings as advisories.
//
// A pass is a fixed, ordered battery of independent checks:
//
//   - arbitrary server access
//   - per server: cookie secret, SSL, embedded credentials, passwordless root
//   - generated cookie secret
//   - save and temp directories
//   - login cookie validity bounds
//   - archive and compression capabilities
//
// Misconfiguration is never an error; it is reported as an Advisory.
// Errors returned by Run mean the store, the capability probe or the random
// source failed.
//
// The only write a pass performs is replacing an invalid blowfish_secret
// when a server uses cookie authentication.
package advisor
