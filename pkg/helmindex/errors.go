package helmindex

import (
	"errors"
)

var (
	// ErrChartNotFound indicates the chart has no key under `entries`.
	ErrChartNotFound = errors.New("chart not found")

	// ErrVersionNotFound indicates no record of the chart has the requested
	// version.
	ErrVersionNotFound = errors.New("chart version not found")

	// ErrAppVersionMismatch indicates a record's appVersion differs from the
	// expected value.
	ErrAppVersionMismatch = errors.New("appVersion mismatch")
)
