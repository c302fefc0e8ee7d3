package disk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/downfa11-org/go-lake/pkg/types"
	"github.com/pkg/errors"
)

const (
	LandingDirName  = "landing"
	TempDirName     = "temp"
	ParquetExt      = ".parquet"
	CompactedPrefix = "compacted_"
)

// Lake is a data lake rooted at Root. The query layer reads LandingDir;
// TempDir holds staging files and lives on the same volume so that a
// rename between them is atomic.
type Lake struct {
	Root       string
	LandingDir string
	TempDir    string
}

// OpenLake creates the landing and staging directories under root if needed.
func OpenLake(root string) (*Lake, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("data lake root is empty")
	}
	l := &Lake{
		Root:       root,
		LandingDir: filepath.Join(root, LandingDirName),
		TempDir:    filepath.Join(root, TempDirName),
	}
	for _, dir := range []string{l.LandingDir, l.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", dir)
		}
	}
	return l, nil
}

// IsEligible reports whether name is a published parquet file that has not
// itself been produced by compaction.
func IsEligible(name string) bool {
	return isParquet(name) && !strings.HasPrefix(name, CompactedPrefix)
}

func isParquet(name string) bool {
	return strings.HasSuffix(name, ParquetExt) && !strings.HasPrefix(name, ".")
}

// ListEligible returns a sorted snapshot of the eligible files directly inside dir.
func ListEligible(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsEligible(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LandingFiles lists every parquet file currently visible to the query layer.
func (l *Lake) LandingFiles() ([]types.LandingFile, error) {
	entries, err := os.ReadDir(l.LandingDir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", l.LandingDir)
	}
	var files []types.LandingFile
	for _, e := range entries {
		if !e.Type().IsRegular() || !isParquet(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed by a concurrent compaction
			continue
		}
		files = append(files, types.LandingFile{
			Name:      e.Name(),
			Path:      filepath.Join(l.LandingDir, e.Name()),
			SizeBytes: info.Size(),
			Compacted: strings.HasPrefix(e.Name(), CompactedPrefix),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Stats summarizes the landing zone and staging area.
type Stats struct {
	Files          int
	CompactedFiles int
	StagingFiles   int
	Bytes          int64
	Rows           int64
}

func (l *Lake) Stats() (Stats, error) {
	var s Stats
	files, err := l.LandingFiles()
	if err != nil {
		return s, err
	}
	for _, f := range files {
		rows, err := CountRows(f.Path)
		if err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				continue
			}
			return s, err
		}
		s.Files++
		if f.Compacted {
			s.CompactedFiles++
		}
		s.Bytes += f.SizeBytes
		s.Rows += rows
	}

	staged, err := os.ReadDir(l.TempDir)
	if err != nil {
		return s, errors.Wrapf(err, "list %s", l.TempDir)
	}
	for _, e := range staged {
		if isParquet(e.Name()) {
			s.StagingFiles++
		}
	}
	return s, nil
}

// Truncate removes every landing and staging file, leaving empty directories.
func (l *Lake) Truncate() error {
	for _, dir := range []string{l.LandingDir, l.TempDir} {
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, "truncate %s", dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "recreate %s", dir)
		}
	}
	return nil
}
