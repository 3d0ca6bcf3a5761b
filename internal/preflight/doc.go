// Package preflight provides readiness checks for the executables, directories
// and translation credential a run depends on.
//
// The CLI "vidsub status" command and the server's health endpoint both render
// these results; the pipeline itself validates its own inputs and does not
// call into this package.
package preflight
