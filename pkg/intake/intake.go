package intake

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const DefaultPattern = "Sales_*.csv"

// Manager finds batch files in the intake directory and moves fully loaded ones to the archive.
type Manager struct {
	IntakeDir  string
	ArchiveDir string
	Pattern    string
}

func NewManager(intakeDir, archiveDir, pattern string) *Manager {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Manager{
		IntakeDir:  intakeDir,
		ArchiveDir: archiveDir,
		Pattern:    pattern,
	}
}

func (m *Manager) EnsureDirectories() error {
	for _, dir := range []string{m.IntakeDir, m.ArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Discover returns the regular files in the intake directory matching the pattern, in lexical
// order.
func (m *Manager) Discover() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(m.IntakeDir, m.Pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan intake directory: %w", err)
	}

	var result []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			result = append(result, file)
		}
	}
	sort.Strings(result)

	return result, nil
}

// ArchivePath is where path ends up once archived.
func (m *Manager) ArchivePath(path string) string {
	return filepath.Join(m.ArchiveDir, filepath.Base(path))
}

// Archive moves path into the archive directory under the same name, replacing any earlier file
// of that name.
func (m *Manager) Archive(path string) (string, error) {
	archivePath := m.ArchivePath(path)

	if err := os.MkdirAll(m.ArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(path, archivePath); err != nil {
		// rename fails across devices
		if err := copyFile(path, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove %s after copying: %w", path, err)
		}
	}

	return archivePath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
