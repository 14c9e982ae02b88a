package app

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Defaults are the paths used when the config file does not set them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	// DatabasePath is where qBittorrent keeps torrents.db for the current
	// user on this platform.
	DatabasePath string
}

// GetDefaults resolves default paths. Environment variables:
//   - QBFRT_CONFIG_PATH: config file (default ~/.config/qbfrt.toml)
//   - QBFRT_HOME: journal, logs and local backups (default ~/.local/share/qbfrt)
func GetDefaults() (*Defaults, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	d := &Defaults{
		ConfigPath:   os.Getenv("QBFRT_CONFIG_PATH"),
		BaseDir:      os.Getenv("QBFRT_HOME"),
		DatabasePath: qbittorrentDatabase(runtime.GOOS, home, os.Getenv("LOCALAPPDATA")),
	}
	if d.ConfigPath == "" {
		d.ConfigPath = filepath.Join(home, ".config", "qbfrt.toml")
	}
	if d.BaseDir == "" {
		d.BaseDir = filepath.Join(home, ".local", "share", "qbfrt")
	}
	d.LogDir = filepath.Join(d.BaseDir, "log")
	return d, nil
}

// qbittorrentDatabase returns qBittorrent's data directory torrents.db.
func qbittorrentDatabase(goos, home, localAppData string) string {
	switch goos {
	case "windows":
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(localAppData, "qBittorrent", "torrents.db")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "qBittorrent", "torrents.db")
	default:
		return filepath.Join(home, ".local", "share", "qBittorrent", "torrents.db")
	}
}
