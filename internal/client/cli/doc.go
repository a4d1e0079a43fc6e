// Package cli provides the interactive command-line client of the users
// service.
//
// Self-service commands (register, login, whoami, passwd, logout, logoutall,
// deactivate) act on the logged-in account. Administrative commands (lock,
// unlock, delete, list) need the admin key from the configuration.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
