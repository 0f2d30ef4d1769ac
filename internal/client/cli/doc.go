// Package cli provides the taskboard command-line client.
//
// Each invocation runs one command (register, login, refresh, logout, me,
// logout-all, sessions, ping) against the auth server. The token pair is kept
// in a session file between invocations; passwords are read from the terminal
// without echo and wiped after use.
package cli
