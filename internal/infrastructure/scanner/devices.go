package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"frontdesk/internal/domain/checkin"
)

const lockFileName = ".lock"

var errLocked = errors.New("locked by another process")

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

func decodeFrameFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}

	return img, nil
}

// SnapshotDevice is a camera whose capture tool drops frames into a directory.
// Opening it locks a file in that directory so two desks never share one camera.
type SnapshotDevice struct {
	dir          string
	pollInterval time.Duration
}

func NewSnapshotDevice(dir string, pollInterval time.Duration) *SnapshotDevice {
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}

	return &SnapshotDevice{dir: dir, pollInterval: pollInterval}
}

func (d *SnapshotDevice) ID() string    { return d.dir }
func (d *SnapshotDevice) Label() string { return filepath.Base(d.dir) }

func (d *SnapshotDevice) Open(ctx context.Context) (FrameStream, error) {
	lock, err := lockFile(filepath.Join(d.dir, lockFileName))
	if errors.Is(err, errLocked) {
		return nil, fmt.Errorf("%w: %s is locked", checkin.ErrScannerBusy, d.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", d.dir, err)
	}

	// frames captured before the session started are stale
	return &snapshotStream{
		device:    d,
		lock:      lock,
		startedAt: time.Now().Add(-d.pollInterval),
	}, nil
}

type snapshotStream struct {
	device    *SnapshotDevice
	lock      *os.File
	startedAt time.Time
	seenPath  string
	seenAt    time.Time
}

func (s *snapshotStream) Next(ctx context.Context) (image.Image, error) {
	ticker := time.NewTicker(s.device.pollInterval)
	defer ticker.Stop()

	for {
		path, modTime, err := s.newestFrame()
		if err != nil {
			return nil, err
		}
		fresh := path != "" && !modTime.Before(s.startedAt) && (path != s.seenPath || modTime.After(s.seenAt))
		if fresh {
			// a frame still being written fails to decode and is retried on the next tick
			if img, err := decodeFrameFile(path); err == nil {
				s.seenPath, s.seenAt = path, modTime
				return img, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *snapshotStream) newestFrame() (string, time.Time, error) {
	entries, err := os.ReadDir(s.device.dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("reading %s: %w", s.device.dir, err)
	}

	var (
		newest  string
		newestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest = filepath.Join(s.device.dir, e.Name())
			newestT = info.ModTime()
		}
	}

	return newest, newestT, nil
}

func (s *snapshotStream) Close() error {
	return unlockFile(s.lock)
}

// ImageDevice yields a single image file once, for scanning a saved photo.
type ImageDevice struct {
	path string
}

func NewImageDevice(path string) *ImageDevice {
	return &ImageDevice{path: path}
}

func (d *ImageDevice) ID() string    { return d.path }
func (d *ImageDevice) Label() string { return filepath.Base(d.path) }

func (d *ImageDevice) Open(ctx context.Context) (FrameStream, error) {
	img, err := decodeFrameFile(d.path)
	if err != nil {
		return nil, err
	}

	return &imageStream{img: img}, nil
}

type imageStream struct {
	img image.Image
}

func (s *imageStream) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.img == nil {
		return nil, io.EOF
	}

	img := s.img
	s.img = nil
	return img, nil
}

func (s *imageStream) Close() error {
	s.img = nil
	return nil
}

// DirEnumerator lists every sub-directory of root as a video input.
type DirEnumerator struct {
	root         string
	pollInterval time.Duration
}

func NewDirEnumerator(root string, pollInterval time.Duration) *DirEnumerator {
	return &DirEnumerator{root: root, pollInterval: pollInterval}
}

func (e *DirEnumerator) VideoInputs(ctx context.Context) ([]Device, error) {
	entries, err := os.ReadDir(e.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	devices := make([]Device, 0, len(names))
	for _, name := range names {
		devices = append(devices, NewSnapshotDevice(filepath.Join(e.root, name), e.pollInterval))
	}

	return devices, nil
}

// StaticEnumerator always reports the same devices.
type StaticEnumerator []Device

func (e StaticEnumerator) VideoInputs(ctx context.Context) ([]Device, error) {
	return e, nil
}
