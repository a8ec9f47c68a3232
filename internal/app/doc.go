// Package app wires the configuration, the shared DNS resolver, the client and the
// fetch service together and runs the command-line workflows of nitai.
package app
