// Package log builds [log/slog] handlers from the `--log_level` and
// `--log_format` command line flags.
package log
