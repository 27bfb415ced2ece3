package utils

import (
	"fmt"
	"os"
	"strconv"
)

func GetEnvInt(varName string, defaultVal int) int {
	v := os.Getenv(varName)
	if v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultVal
}

// FileSizeMB returns the size of the named file in megabytes.
func FileSizeMB(name string) (float64, error) {
	fi, err := os.Stat(name)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return float64(fi.Size()) / (1024 * 1024), nil
}

// ContainsString returns true when target is present in list.
func ContainsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
