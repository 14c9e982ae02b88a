package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("QBFRT_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("QBFRT_HOME", "/custom/qbfrt")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if d.ConfigPath != "/custom/config.toml" {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, "/custom/config.toml")
		}
		if d.BaseDir != "/custom/qbfrt" {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, "/custom/qbfrt")
		}
		if want := filepath.Join("/custom/qbfrt", "log"); d.LogDir != want {
			t.Errorf("LogDir = %q, want %q", d.LogDir, want)
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("QBFRT_CONFIG_PATH", "")
		t.Setenv("QBFRT_HOME", "")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		if want := filepath.Join(homeDir, ".config", "qbfrt.toml"); d.ConfigPath != want {
			t.Errorf("ConfigPath = %q, want %q", d.ConfigPath, want)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "qbfrt")
		if d.BaseDir != wantBase {
			t.Errorf("BaseDir = %q, want %q", d.BaseDir, wantBase)
		}
		if d.DatabasePath == "" {
			t.Error("DatabasePath is empty")
		}
	})
}

func TestQbittorrentDatabase(t *testing.T) {
	tests := []struct {
		goos         string
		localAppData string
		want         string
	}{
		{"linux", "", filepath.Join("/home/u", ".local", "share", "qBittorrent", "torrents.db")},
		{"freebsd", "", filepath.Join("/home/u", ".local", "share", "qBittorrent", "torrents.db")},
		{"darwin", "", filepath.Join("/home/u", "Library", "Application Support", "qBittorrent", "torrents.db")},
		{"windows", "/appdata/local", filepath.Join("/appdata/local", "qBittorrent", "torrents.db")},
		{"windows", "", filepath.Join("/home/u", "AppData", "Local", "qBittorrent", "torrents.db")},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.localAppData, func(t *testing.T) {
			if got := qbittorrentDatabase(tt.goos, "/home/u", tt.localAppData); got != tt.want {
				t.Errorf("qbittorrentDatabase() = %q, want %q", got, tt.want)
			}
		})
	}
}
