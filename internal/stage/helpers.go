package stage

import (
	"os/exec"
	"strings"
)

// CheckTool reports stage health based on whether the named binary resolves.
// Relative names are looked up on PATH; absolute paths are checked directly.
func CheckTool(stageName, binary string) Health {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return Unhealthy(stageName, "tool binary not configured")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return Unhealthy(stageName, "tool unavailable: "+binary)
	}
	return Healthy(stageName)
}
