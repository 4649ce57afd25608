// Package version holds build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Populated via -ldflags at build time, e.g.:
//
//	go build -ldflags "-X github.com/jackzampolin/pdf2md/version.GitRelease=v0.2.0"
var (
	// GitRelease is the release tag or branch name.
	GitRelease = "dev"

	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"

	// GitCommitDate is the date of the commit.
	GitCommitDate = "unknown"
)

// GoInfo describes the Go toolchain and target platform.
var GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
