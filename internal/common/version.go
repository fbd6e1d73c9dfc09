package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
)

// Set at build time with -ldflags "-X .../internal/common.Version=...".
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", b.Version, b.Build, b.Commit)
}

var (
	buildOnce sync.Once
	buildInfo BuildInfo
)

// CurrentBuild resolves build identity once. ldflags win, then a .version
// file next to the executable, then the VCS stamp Go embeds in the binary.
func CurrentBuild() BuildInfo {
	buildOnce.Do(func() {
		buildInfo = BuildInfo{Version: Version, Build: Build, Commit: GitCommit}
		if exe, err := os.Executable(); err == nil {
			if f, err := os.Open(filepath.Join(filepath.Dir(exe), ".version")); err == nil {
				buildInfo = buildInfo.fill(parseVersionFile(f))
				f.Close()
			}
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			buildInfo = buildInfo.fill(fromBuildSettings(info))
		}
	})
	return buildInfo
}

// fill replaces fields still at their ldflags default.
func (b BuildInfo) fill(from BuildInfo) BuildInfo {
	if b.Version == "dev" && from.Version != "" {
		b.Version = from.Version
	}
	if b.Build == "unknown" && from.Build != "" {
		b.Build = from.Build
	}
	if b.Commit == "unknown" && from.Commit != "" {
		b.Commit = from.Commit
	}
	return b
}

// parseVersionFile reads "key: value" lines; # starts a comment.
func parseVersionFile(r io.Reader) BuildInfo {
	var out BuildInfo
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "version":
			out.Version = val
		case "build":
			out.Build = val
		case "commit":
			out.Commit = val
		}
	}
	return out
}

func fromBuildSettings(info *debug.BuildInfo) BuildInfo {
	var out BuildInfo
	if v := info.Main.Version; v != "" && v != "(devel)" {
		out.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 12 {
				out.Commit = s.Value[:12]
			} else {
				out.Commit = s.Value
			}
		case "vcs.time":
			out.Build = s.Value
		}
	}
	return out
}
