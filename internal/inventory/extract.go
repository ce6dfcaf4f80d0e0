package inventory

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/splunk-upgrade-cli/internal/fetcher"
	"github.com/sells-group/splunk-upgrade-cli/internal/model"
)

// ExtractAll unpacks every archive under sourceDir into targetDir/<stem>.
// A broken archive is recorded in its outcome and does not stop the rest.
func ExtractAll(sourceDir, targetDir string) ([]model.ExtractOutcome, error) {
	if _, err := os.Stat(sourceDir); err != nil {
		return nil, eris.Wrapf(err, "extract: source %s", sourceDir)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "extract: create %s", targetDir)
	}

	var outcomes []model.ExtractOutcome
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		stem, ok := fetcher.ArchiveStem(d.Name())
		if !ok {
			return nil
		}

		dest := filepath.Join(targetDir, stem)
		out := model.ExtractOutcome{Archive: path, Dest: dest}

		files, xerr := fetcher.ExtractTGZ(path, dest)
		out.Files = len(files)
		if xerr != nil {
			out.Error = xerr.Error()
			zap.L().Error("extract: failed",
				zap.String("archive", path),
				zap.Error(xerr),
			)
		} else {
			zap.L().Info("extract: unpacked",
				zap.String("archive", path),
				zap.String("dest", dest),
				zap.Int("files", out.Files),
			)
		}
		outcomes = append(outcomes, out)
		return nil
	})
	if err != nil {
		return outcomes, eris.Wrapf(err, "extract: walk %s", sourceDir)
	}
	return outcomes, nil
}
