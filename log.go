package thegrid

import (
	logxi "github.com/mgutz/logxi/v1"
)

var (
	logger = logxi.New("thegrid")
)

// SetLogger replaces the logger used by the grid components, typically so
// that the daemon can direct the output to a rotated log file
func SetLogger(l logxi.Logger) {
	if l != nil {
		logger = l
	}
}
