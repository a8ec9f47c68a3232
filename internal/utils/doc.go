// Package utils provides small helpers shared by the client and the CLI:
// safe numeric conversions, file name sanitizing, file checks
// and content type classification.
package utils
