// Package buildinfo exposes version metadata for the CLI. Values come from
// -ldflags, then from the cli package, then from the module build info
// embedded by the go tool.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/flarebyte/glossa/cli"
)

var (
	Version = ""
	Commit  = ""
	Date    = ""
	BuiltBy = ""
)

// Info is the resolved version metadata.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
	BuiltBy string `json:"built_by,omitempty"`
	Go      string `json:"go"`
	OS      string `json:"go_os"`
	Arch    string `json:"go_arch"`
}

var readBuildInfo = debug.ReadBuildInfo

// Get resolves version metadata.
func Get() Info {
	info := Info{
		Version: first(Version, cli.Version),
		Commit:  Commit,
		Date:    first(Date, cli.Date),
		BuiltBy: BuiltBy,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if bi, ok := readBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = first(info.Commit, s.Value)
			case "vcs.time":
				info.Date = first(info.Date, s.Value)
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

// Summary returns a concise single-line version string.
func Summary() string {
	info := Get()
	var parts []string
	if c := info.Commit; c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if info.Date != "" {
		parts = append(parts, "date="+info.Date)
	}
	if len(parts) == 0 {
		return info.Version
	}
	return info.Version + " (" + strings.Join(parts, ", ") + ")"
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
