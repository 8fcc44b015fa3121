package adb

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// FindADB attempts to locate the adb executable. An explicit path from
// configuration wins; otherwise common install locations and $PATH are tried.
func FindADB(configuredPath string) (string, error) {
	if configuredPath != "" && configuredPath != "adb" {
		if _, err := os.Stat(configuredPath); err == nil {
			return configuredPath, nil
		}
		return "", fmt.Errorf("adb not found at configured path %s", configuredPath)
	}

	candidates := []string{
		"/usr/bin/adb",
		"/usr/local/bin/adb",
		os.ExpandEnv("$HOME/Android/Sdk/platform-tools/adb"),
	}
	lookupName := "adb"
	if runtime.GOOS == "windows" {
		candidates = []string{
			`C:\Android\sdk\platform-tools\adb.exe`,
			os.ExpandEnv(`$LOCALAPPDATA\Android\Sdk\platform-tools\adb.exe`),
		}
		lookupName = "adb.exe"
	}

	for _, path := range candidates {
		if strings.Contains(path, "$") {
			continue // unexpanded variable
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath(lookupName); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("adb not found, please set adb_path in Settings.ini")
}
