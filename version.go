package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Version is set at link time with -ldflags "-X main.Version=v1.2.3" and is
// part of every render cache key.
var Version = "dev"

// buildRevision returns the VCS revision stamped by the go tool, marked
// dirty when the tree had local changes.
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "+dirty"
	}
	return rev
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "synthgraph %s %s/%s", Version, runtime.GOOS, runtime.GOARCH)
	if rev := buildRevision(); rev != "" {
		fmt.Fprintf(w, " (%s)", rev)
	}
	fmt.Fprintln(w)
}
