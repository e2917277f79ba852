package prompt

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DetectShell returns the name of the user's shell, falling back to a
// platform default.
func DetectShell() string {
	return detectShell(runtime.GOOS, os.Getenv)
}

func detectShell(goos string, getenv func(string) string) string {
	if goos == "windows" {
		if getenv("PSModulePath") != "" {
			return "powershell"
		}
		if comspec := getenv("COMSPEC"); comspec != "" {
			// Split on both separators; filepath only knows the host's.
			name := comspec[strings.LastIndexAny(comspec, `\/`)+1:]
			return strings.TrimSuffix(strings.ToLower(name), ".exe")
		}
		return "cmd"
	}

	if sh := getenv("SHELL"); sh != "" {
		return filepath.Base(sh)
	}
	return "sh"
}

// OSName returns a human readable name of the operating system.
func OSName() string {
	return osName(runtime.GOOS)
}

func osName(goos string) string {
	switch goos {
	case "darwin":
		return "macOS"
	case "linux":
		return "Linux"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	default:
		return goos
	}
}
