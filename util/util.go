package util

import (
	"os"
)

// FileExists returns true if the file at pathToFile exists.
func FileExists(pathToFile string) bool {
	_, err := os.Stat(pathToFile)
	return err == nil
}
