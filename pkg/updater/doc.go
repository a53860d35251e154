// Package updater stamps a chart repository index with the current release
// tag.
//
// An [Updater] resolves the tag, loads the index from a [helmindex.Store],
// sets appVersion on the first record of the chart whose version equals the
// tag, and writes the whole index back. Tag resolution and storage are
// injected, so the updater can run against an in-memory repository and
// filesystem.
package updater
