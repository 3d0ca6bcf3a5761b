// Package textutil provides small text helpers shared by the service clients,
// chiefly filename sanitization for titles that end up on disk.
package textutil
