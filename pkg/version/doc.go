// Package version provides version information for the application.
//
// Version and Revision default to values read from the Go build information
// and can be overridden at link time with -ldflags "-X".
package version
