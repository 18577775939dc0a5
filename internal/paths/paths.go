// Package paths provides centralized path configuration for the application
package paths

import "path/filepath"

// Paths holds all configurable paths for the application
type Paths struct {
	ConfigPath  string // /etc/fish-house/config.yaml
	DataDir     string // /var/lib/fish-house
	SessionFile string // /var/lib/fish-house/sessions.json
	LogPath     string // /tmp/fish-house.log
}

// Default returns the default paths for production use
func Default() Paths {
	return under("/etc/fish-house", "/var/lib/fish-house", "/tmp/fish-house.log")
}

// DevPaths returns paths inside the working tree for local runs
func DevPaths() Paths {
	return under("testdata/dev", "testdata/dev/data", "testdata/dev/bot.log")
}

func under(configDir, dataDir, logPath string) Paths {
	return Paths{
		ConfigPath:  filepath.Join(configDir, "config.yaml"),
		DataDir:     dataDir,
		SessionFile: filepath.Join(dataDir, "sessions.json"),
		LogPath:     logPath,
	}
}
