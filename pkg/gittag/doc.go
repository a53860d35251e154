// Package gittag resolves the release tag of a checkout.
//
// The tag is the nearest tag reachable from HEAD, lightweight or annotated,
// as printed by `git describe --abbrev=0 --tags`. [ExecResolver] asks the git
// binary; [RepoResolver] computes the same answer in-process with go-git, for
// environments without git on the PATH.
package gittag
