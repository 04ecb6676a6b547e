package config

import (
	"fmt"
	"slices"
	"strings"
)

// KeyConfigVersion optionally pins the configuration file format.
const KeyConfigVersion = "configVersion"

// CurrentConfigVersion is the format written by this release.
const CurrentConfigVersion = "1"

var supportedConfigVersions = []string{CurrentConfigVersion}

// checkConfigVersion accepts files without a configVersion key.
func checkConfigVersion(p Properties) error {
	v, ok := p.Lookup(KeyConfigVersion)
	if !ok || slices.Contains(supportedConfigVersions, strings.TrimSpace(v)) {
		return nil
	}
	return fmt.Errorf("unsupported configVersion: %q (supported: %s)", v, strings.Join(supportedConfigVersions, ", "))
}
