// Package helmindex reads, stamps, and writes Helm chart repository index
// files (`index.yaml`).
//
// Documents are held as a [gopkg.in/yaml.v3] node tree, so comments, key
// order, and fields this package does not know about survive a
// parse-modify-write round trip. Indentation is normalized on output.
//
// [Verify] is the read-only counterpart: it decodes the index with Helm's own
// repository types and checks that a chart version carries the expected
// appVersion.
package helmindex
