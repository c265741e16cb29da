// Package config handles configuration loading and validation for phototriage.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/phototriage/
//   - Linux:   ~/.local/share/phototriage/
//   - Windows: %APPDATA%\phototriage\
//
// Falls back to ~/.phototriage if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return linuxDataDir()
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/phototriage/
//   - Linux:   ~/.config/phototriage/
//   - Windows: %APPDATA%\phototriage\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir() // macOS uses same dir for config and data
	case "linux":
		return linuxConfigDir()
	case "windows":
		return windowsDataDir() // Windows uses same dir for config and data
	default:
		return fallbackDataDir()
	}
}

// PlatformCacheDir returns the platform-specific cache directory, used
// for thumbnail caches.
//
// Platform paths:
//   - macOS:   ~/Library/Caches/phototriage/
//   - Linux:   ~/.cache/phototriage/
//   - Windows: %LOCALAPPDATA%\phototriage\cache\
func PlatformCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSCacheDir()
	case "linux":
		return linuxCacheDir()
	case "windows":
		return windowsCacheDir()
	default:
		return filepath.Join(fallbackDataDir(), "cache")
	}
}

// macOS-specific paths

func macOSDataDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", "Application Support", "phototriage")
}

func macOSCacheDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", "Caches", "phototriage")
}

// Linux-specific paths following XDG Base Directory Specification

func linuxDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "phototriage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "phototriage")
}

func linuxConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "phototriage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "phototriage")
}

func linuxCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "phototriage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "phototriage")
}

// Windows-specific paths

func windowsDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "phototriage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", "phototriage")
}

func windowsCacheDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, "phototriage", "cache")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Local", "phototriage", "cache")
}

// Fallback path (legacy compatibility)

func fallbackDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".phototriage")
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	// Search order:
	// 1. Current directory
	// 2. Config directory
	// 3. Data directory (legacy)
	searchDirs := []string{
		".",
		PlatformConfigDir(),
		PlatformDataDir(),
	}

	for _, dir := range searchDirs {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}
