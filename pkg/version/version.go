package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current application version.
// This is a var (not const) so it can be overridden at build time via:
//
//	go build -ldflags "-X github.com/vanderheijden86/treestate/pkg/version.Version=v1.2.3"
var Version = "v0.1.0"

// String returns the version line printed by -version. Builds installed with
// go install report their module version when Version was not overridden.
func String(program string) string {
	v := Version
	if info, ok := debug.ReadBuildInfo(); ok && v == "v0.1.0" {
		if mv := info.Main.Version; mv != "" && mv != "(devel)" {
			v = mv
		}
	}
	return fmt.Sprintf("%s %s (%s/%s)", program, v, runtime.GOOS, runtime.GOARCH)
}
