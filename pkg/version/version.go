package version

import (
	"runtime/debug"
)

const devVersion = "0.0.0-dev"

var (
	Version  = devVersion
	Revision = "unknown"
)

func init() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" && Revision == "unknown" {
			Revision = s.Value
		}
	}
}
