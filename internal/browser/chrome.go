package browser

import (
	"os/exec"
	"path/filepath"

	"github.com/jmylchreest/tecanki/internal/logger"
)

// chromeBinaryNames are tried in order. Edge is a last resort.
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	"microsoft-edge",
	`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
	"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
}

// FindChromePath returns the first Chromium-based browser found on the
// system, or "" when there is none.
func FindChromePath() string {
	return findBinary(chromeBinaryNames, exec.LookPath)
}

func findBinary(names []string, lookPath func(string) (string, error)) string {
	for _, name := range names {
		if path, err := lookPath(name); err == nil {
			logger.Debug("found browser binary", "name", filepath.Base(name), "path", path)
			return path
		}
	}
	logger.Warn("no Chrome or Edge binary found")
	return ""
}
