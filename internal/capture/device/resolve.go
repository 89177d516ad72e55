package device

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

var errNotExecutable = errors.New("not executable")

// lookExecutable resolves command to a runnable file. Bare names are looked
// up in PATH; anything with a separator is taken as a path.
func lookExecutable(command string) (string, error) {
	if command == "" {
		return "", errors.New("no command configured")
	}
	if !filepath.IsAbs(command) && !strings.Contains(command, string(os.PathSeparator)) {
		path, err := exec.LookPath(command)
		if err != nil {
			return "", fmt.Errorf("%s not found in PATH", command)
		}
		return path, nil
	}

	info, err := os.Stat(command)
	if err != nil {
		return "", fmt.Errorf("%s not found", command)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", command)
	}
	if runtime.GOOS != "windows" && info.Mode()&0111 == 0 {
		return "", fmt.Errorf("%s: %w", command, errNotExecutable)
	}
	return command, nil
}
