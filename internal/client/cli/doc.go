// Package cli implements authctl, the command-line client of the gophauth
// server. Each invocation opens the local session store, runs one command
// and closes the store again.
package cli
