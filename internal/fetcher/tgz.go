package fetcher

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ArchiveExtensions are the file suffixes ExtractTGZ understands, longest first.
var ArchiveExtensions = []string{".tar.gz", ".tgz", ".spl"}

// ArchiveStem strips a known archive extension from a file name. The second
// return is false when name is not an archive.
func ArchiveStem(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range ArchiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)], true
		}
	}
	return "", false
}

// ExtractTGZ extracts a gzip-compressed tar archive (Splunk .tgz and .spl
// packages) into destDir. Returns the list of extracted file paths. Symlinks
// and other special entries are skipped.
func ExtractTGZ(archivePath, destDir string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, eris.Wrap(err, "tgz: open archive")
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, eris.Wrap(err, "tgz: open gzip stream")
	}
	defer gz.Close() //nolint:errcheck

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "tgz: create destination")
	}

	tr := tar.NewReader(gz)
	var extracted []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extracted, eris.Wrap(err, "tgz: read entry")
		}

		path, err := extractTarEntry(tr, hdr, destDir)
		if err != nil {
			return extracted, err
		}
		if path != "" {
			extracted = append(extracted, path)
		}
	}

	return extracted, nil
}

// extractTarEntry writes one tar entry below destDir.
// Returns the extracted file path, or empty string for directories and skipped entries.
func extractTarEntry(tr *tar.Reader, hdr *tar.Header, destDir string) (string, error) {
	// Sanitize against tar slip. The archive root ("./") maps onto destDir.
	destPath := filepath.Join(destDir, hdr.Name)
	if filepath.Clean(destPath) == filepath.Clean(destDir) {
		return "", nil
	}
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", eris.Errorf("tgz: illegal path %q (tar slip attempt)", hdr.Name)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(destPath, 0o755); err != nil {
			return "", eris.Wrap(err, "tgz: create directory")
		}
		return "", nil
	case tar.TypeReg:
	default:
		zap.L().Debug("tgz: skipping entry",
			zap.String("name", hdr.Name),
			zap.String("type", string(hdr.Typeflag)),
		)
		return "", nil
	}

	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", eris.Wrap(err, "tgz: create parent directory")
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm()|0o600)
	if err != nil {
		return "", eris.Wrap(err, "tgz: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, tr); err != nil {
		return "", eris.Wrap(err, "tgz: write file")
	}

	return destPath, nil
}
