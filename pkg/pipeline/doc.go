// Package pipeline ties the certificate authority, upstream registry,
// session store, and feedback channel into the single-connection state
// machine described by spec §4.E:
//
//	RECEIVED -> (CONNECT? -> TUNNEL_SNIFF -> {WS_SERVE | TLS_SERVE | RAW_COPY | ABORT})
//	         -> (non-CONNECT -> NORMALIZE -> SESSION_RESOLVE -> SELECT -> DISPATCH
//	                          -> {OK | UPSTREAM_ERR | TIMEOUT} -> RESPOND -> FEEDBACK)
package pipeline
