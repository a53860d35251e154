package helmindex

import (
	"fmt"

	"helm.sh/helm/v3/pkg/repo"
	"sigs.k8s.io/yaml"

	"github.com/macropower/indexstamp/pkg/indexerrors"
)

// Verify checks that the first record of chart whose version equals tag has
// an appVersion equal to tag. The index is decoded with Helm's
// [repo.IndexFile] types, so it also catches documents that Helm itself
// would not be able to read.
func Verify(data []byte, chart, tag string) error {
	idx := &repo.IndexFile{}
	if err := yaml.Unmarshal(data, idx); err != nil {
		return fmt.Errorf("%w: %w", indexerrors.ErrYAMLUnmarshal, err)
	}

	versions, ok := idx.Entries[chart]
	if !ok {
		return fmt.Errorf("%w: %q", ErrChartNotFound, chart)
	}

	for _, cv := range versions {
		if cv == nil || cv.Metadata == nil || cv.Version != tag {
			continue
		}

		if cv.AppVersion != tag {
			return fmt.Errorf("%w: %s %s has appVersion %q, want %q",
				ErrAppVersionMismatch, chart, cv.Version, cv.AppVersion, tag)
		}

		return nil
	}

	return fmt.Errorf("%w: %s %s", ErrVersionNotFound, chart, tag)
}
