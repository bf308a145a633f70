// Package wallet owns the connected-wallet session of a user.
//
// A Session caches the connected Account, shares one in-flight connection
// attempt between concurrent callers and can persist the cached account in
// a kv.Store so it survives restarts. The wallet SDK itself sits behind the
// Connector interface. Session implements component.Component, so it can be
// registered with the rest of the application lifecycle.
package wallet
