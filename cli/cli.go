package cli

// Version and Date should be set at build time using ldflags, e.g.:
//
//	-ldflags "-X 'github.com/flarebyte/glossa/cli.Version=1.2.3' -X 'github.com/flarebyte/glossa/cli.Date=2026-10-01'"
var (
	Version string
	Date    string
)
