package tripdata

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractCSVs unpacks the csv members of one monthly archive into
// destDir and returns their paths. macOS resource forks and Jersey
// City extracts that ride along in some archives are skipped.
func ExtractCSVs(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extract dir: %w", err)
	}

	var paths []string
	for _, f := range r.File {
		if !wantedCSV(f.Name) {
			continue
		}

		dest := filepath.Join(destDir, filepath.Base(f.Name))
		if err := extractOne(f, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

// wantedCSV reports whether an archive member is a trip csv worth
// extracting
func wantedCSV(name string) bool {
	if strings.Contains(name, "__MACOSX") {
		return false
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, "._") || base == ".DS_Store" {
		return false
	}
	if strings.HasPrefix(strings.ToUpper(base), "JC-") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(base), ".csv")
}

func extractOne(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}
