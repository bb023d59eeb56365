package internal

import (
	"os"
	"path/filepath"
	"runtime"
)

// IsMacOS checks if the runtime OS is darwin
func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

// AppDir is ~/.ec2provision, holding the config file and update-check cache.
func AppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, "."+AppName)
}

// DefaultKeyPath is ~/Documents/<name>.pem.
func DefaultKeyPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, "Documents", name+".pem")
}
