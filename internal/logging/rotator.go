package logging

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// LogFileName is the active log file inside the log directory.
	LogFileName = "candyland.log"

	backupPrefix = "candyland-"
	backupLayout = "20060102T150405.000"
)

// FileSinkOptions configure size based rotation of the log file.
type FileSinkOptions struct {
	Dir        string
	MaxSize    int64         // bytes before the active file is rotated
	MaxBackups int           // rotated files kept, 0 keeps all
	MaxAge     time.Duration // rotated files older than this are removed, 0 keeps all
	Compress   bool
}

// FileSink is an io.WriteCloser appending to Dir/candyland.log. When a write
// would push the file past MaxSize it is renamed to
// candyland-<timestamp>.log (gzipped when Compress is set) and a fresh file
// is started.
type FileSink struct {
	opts FileSinkOptions
	now  func() time.Time

	mu   sync.Mutex
	file *os.File
	size int64
}

// OpenFileSink creates Dir when needed and opens the active log file.
func OpenFileSink(opts FileSinkOptions) (*FileSink, error) {
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("log max size must be positive, got %d", opts.MaxSize)
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	s := &FileSink{opts: opts, now: time.Now}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the active log file.
func (s *FileSink) Path() string {
	return filepath.Join(s.opts.Dir, LogFileName)
}

func (s *FileSink) open() error {
	f, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	s.file = f
	s.size = info.Size()
	return nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	// An empty file always takes the write, even one larger than MaxSize.
	if s.size > 0 && s.size+int64(len(p)) > s.opts.MaxSize {
		if err := s.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := s.file.Write(p)
	s.size += int64(n)
	return n, err
}

// Rotate closes the active file, archives it and starts a new one.
func (s *FileSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotate()
}

func (s *FileSink) rotate() error {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		s.file = nil
	}

	backup, err := s.backupPath()
	if err != nil {
		return err
	}
	archived := true
	if err := os.Rename(s.Path(), backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("archive log file: %w", err)
		}
		archived = false
	}

	// Housekeeping failures never stop logging.
	var housekeeping error
	if archived && s.opts.Compress {
		housekeeping = gzipFile(backup)
	}
	housekeeping = errors.Join(housekeeping, s.prune())
	if housekeeping != nil {
		fmt.Fprintf(os.Stderr, "candyland: log rotation: %v\n", housekeeping)
	}

	return s.open()
}

// backupPath names the archive after the rotation time, adding a counter when
// two rotations land in the same millisecond.
func (s *FileSink) backupPath() (string, error) {
	stamp := s.now().UTC().Format(backupLayout)
	for i := 0; i < 1000; i++ {
		name := backupPrefix + stamp
		if i > 0 {
			name = fmt.Sprintf("%s-%d", name, i)
		}
		name += ".log"
		path := filepath.Join(s.opts.Dir, name)
		if !exists(path) && !exists(path+".gz") {
			return path, nil
		}
	}
	return "", fmt.Errorf("no free backup name for %s", stamp)
}

type backupFile struct {
	name    string
	rotated time.Time
}

// backups lists archived log files, oldest first.
func (s *FileSink) backups() ([]backupFile, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return nil, err
	}
	var out []backupFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rotated, ok := parseBackupName(e.Name())
		if !ok {
			continue
		}
		out = append(out, backupFile{name: e.Name(), rotated: rotated})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rotated.Equal(out[j].rotated) {
			return out[i].name < out[j].name
		}
		return out[i].rotated.Before(out[j].rotated)
	})
	return out, nil
}

func parseBackupName(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, backupPrefix)
	if !ok {
		return time.Time{}, false
	}
	rest = strings.TrimSuffix(rest, ".gz")
	rest, ok = strings.CutSuffix(rest, ".log")
	if !ok || len(rest) < len(backupLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(backupLayout, rest[:len(backupLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *FileSink) prune() error {
	files, err := s.backups()
	if err != nil {
		return fmt.Errorf("list log backups: %w", err)
	}

	var errs []error
	remove := func(name string) {
		if err := os.Remove(filepath.Join(s.opts.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	kept := files[:0]
	if s.opts.MaxAge > 0 {
		cutoff := s.now().Add(-s.opts.MaxAge)
		for _, f := range files {
			if f.rotated.Before(cutoff) {
				remove(f.name)
				continue
			}
			kept = append(kept, f)
		}
	} else {
		kept = files
	}

	if s.opts.MaxBackups > 0 && len(kept) > s.opts.MaxBackups {
		for _, f := range kept[:len(kept)-s.opts.MaxBackups] {
			remove(f.name)
		}
	}
	return errors.Join(errs...)
}

// gzipFile replaces path with path.gz.
func gzipFile(path string) error {
	if err := writeGzip(path, path+".gz"); err != nil {
		_ = os.Remove(path + ".gz")
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return os.Remove(path)
}

func writeGzip(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err := io.Copy(zw, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Close closes the active file. A later Write reopens it.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
