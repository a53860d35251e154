// Package paths locates the version-control checkout that contains a path.
package paths
