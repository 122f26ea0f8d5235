package out

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// basePath strips the final extension: "logs/app_usage_log.json" becomes
// "logs/app_usage_log".
func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// writeFileAtomic replaces path through a temp file in the same directory
// so readers never observe a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// copyFile copies src to dst. It reports false when src does not exist.
func copyFile(src, dst string) (bool, error) {
	payload, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, payload, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", dst, err)
	}
	return true, nil
}

func backupPath(path, stamp string) string {
	return basePath(path) + ".backup_" + stamp + ".json"
}
