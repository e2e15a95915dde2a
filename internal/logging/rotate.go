package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dateLayout = "2006-01-02"

// DailyFile is an io.Writer that appends to app-YYYY-MM-DD.log in dir and
// switches files when the calendar day changes. Files older than the
// retention window are removed on every switch.
type DailyFile struct {
	dir           string
	retentionDays int
	now           func() time.Time

	mu      sync.Mutex
	date    string
	current *os.File
}

func OpenDailyFile(dir string, retentionDays int) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &DailyFile{dir: dir, retentionDays: retentionDays, now: time.Now}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateLocked(d.now().Format(dateLayout)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if date := d.now().Format(dateLayout); date != d.date {
		if err := d.rotateLocked(date); err != nil {
			return 0, err
		}
	}
	return d.current.Write(p)
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil
	}
	err := d.current.Close()
	d.current = nil
	return err
}

func (d *DailyFile) rotateLocked(date string) error {
	filename := filepath.Join(d.dir, fmt.Sprintf("app-%s.log", date))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if d.current != nil {
		_ = d.current.Close()
	}
	d.current = file
	d.date = date
	d.cleanup()
	return nil
}

func (d *DailyFile) cleanup() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	cutoff := d.now().AddDate(0, 0, -(d.retentionDays - 1))
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		logDate, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log"))
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(d.dir, name))
		}
	}
}
