package recorder

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// TimestampLayout formats artifact timestamps at second resolution.
const TimestampLayout = "2006-01-02-15-04-05"

var nameSanitizer = strings.NewReplacer("|", "", `\`, "", ":", "", "/", "")

// Sanitize strips the characters that are unsafe in a file name component.
func Sanitize(name string) string {
	return nameSanitizer.Replace(name)
}

// Artifact describes one persisted snapshot.
type Artifact struct {
	Path      string
	Monitor   string
	Timestamp time.Time
	Size      int
}

// PersistError wraps a failed artifact write.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Persister writes encoded snapshots to <dir>/monitor-<name>-<timestamp>.<ext>.
// Two snapshots of one display within the same second share a path and the
// later write replaces the earlier one.
type Persister struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewPersister writes into dir on fs. A nil fs means the OS filesystem.
func NewPersister(fs afero.Fs, dir string) *Persister {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Persister{fs: fs, dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (p *Persister) Dir() string { return p.dir }

// Path builds the artifact path for a display name at ts.
func (p *Persister) Path(monitorName string, ts time.Time, ext string) string {
	name := fmt.Sprintf("monitor-%s-%s.%s", Sanitize(monitorName), ts.Local().Format(TimestampLayout), ext)
	return filepath.Join(p.dir, name)
}

// Write persists data for monitorName. Failures are returned, not retried.
func (p *Persister) Write(monitorName string, data []byte, ext string) (Artifact, error) {
	ts := p.now()
	path := p.Path(monitorName, ts, ext)

	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return Artifact{}, &PersistError{Path: path, Err: err}
	}
	if err := afero.WriteFile(p.fs, path, data, 0o644); err != nil {
		return Artifact{}, &PersistError{Path: path, Err: err}
	}
	return Artifact{Path: path, Monitor: monitorName, Timestamp: ts, Size: len(data)}, nil
}
