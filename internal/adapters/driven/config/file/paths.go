package file

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the application directory.
const HomeEnv = "DOCQA_HOME"

// DefaultDir returns the application directory, ~/.docqa unless HomeEnv is set.
func DefaultDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docqa"), nil
}

// subDir returns dir when set, otherwise DefaultDir joined with name.
func subDir(dir, name string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	root, err := DefaultDir()
	if err != nil {
		return "", err
	}
	if name == "" {
		return root, nil
	}
	return filepath.Join(root, name), nil
}
