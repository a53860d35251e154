// Package indexerrors provides error definitions shared by the index tooling.
//
// Packages wrap these sentinels with [fmt.Errorf] and the `%w` verb so that
// callers can match failure classes with [errors.Is] regardless of which
// component raised them.
package indexerrors
