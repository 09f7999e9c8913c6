package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Paths contains the resolved file system locations used by the binaries
type Paths struct {
	BaseDir    string
	DataFile   string
	ReportsDir string
	LogsDir    string
}

// GetPaths resolves the configured paths against baseDir. An empty baseDir
// means the current working directory.
func (c *Config) GetPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	logsDir := ""
	if c.Logging.FilePath != "" {
		logsDir = filepath.Dir(resolve(c.Logging.FilePath))
	}

	return &Paths{
		BaseDir:    baseDir,
		DataFile:   resolve(c.Data.Path),
		ReportsDir: resolve(c.Data.ReportsDir),
		LogsDir:    logsDir,
	}, nil
}

// EnsureDirectories creates the output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ReportPath returns the export path for one selection, e.g.
// reports/forecast_andhra_pradesh_murder_h5.csv
func (p *Paths) ReportPath(state, category string, horizon int, ext string) string {
	name := "forecast_" + Slug(state)
	if category != "" {
		name += "_" + Slug(category)
	}
	name = fmt.Sprintf("%s_h%d.%s", name, horizon, strings.TrimPrefix(ext, "."))
	return filepath.Join(p.ReportsDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// Slug lowercases s and replaces every run of non-alphanumerics with "_"
func Slug(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
