package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RotatingLogger writes to one file per ISO week under logDir. A file that
// reaches maxFileSize is continued in a numbered sibling (prefix-2025-W41_01.log).
type RotatingLogger struct {
	logDir      string
	prefix      string
	retention   time.Duration
	maxFileSize int64

	mu          sync.Mutex
	currentFile *os.File
	currentWeek string
	currentSize int64

	stop chan struct{}
	done chan struct{}
}

// NewRotatingLogger creates the log directory and opens the file of the current week
func NewRotatingLogger(logDir, prefix string, retentionWeeks int, maxFileSize int64) (*RotatingLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	rl := &RotatingLogger{
		logDir:      logDir,
		prefix:      prefix,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}

	rl.mu.Lock()
	err := rl.rotate(getWeekKey(time.Now()), false)
	rl.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go rl.cleanupLoop(24 * time.Hour)
	return rl, nil
}

// getWeekKey returns the week key in YYYY-Www format (ISO week)
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotate switches to the file for week (caller must hold the lock).
// full forces a new numbered file because the current one hit the size cap.
func (rl *RotatingLogger) rotate(week string, full bool) error {
	if rl.currentFile != nil {
		if err := rl.currentFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file during rotation: %v\n", err)
		}
		rl.currentFile = nil
	}

	name := rl.fileFor(week, full)
	path := filepath.Join(rl.logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rl.currentFile = file
	rl.currentWeek = week
	rl.currentSize = 0
	if info, err := file.Stat(); err == nil {
		rl.currentSize = info.Size()
	}

	return nil
}

// fileFor picks the base file of the week, or the last numbered one that
// still has room, or the next number
func (rl *RotatingLogger) fileFor(week string, full bool) string {
	base := fmt.Sprintf("%s-%s.log", rl.prefix, week)

	highest, lastSize := rl.highestNumbered(week)
	if highest == 0 {
		if !full && !rl.isFull(filepath.Join(rl.logDir, base)) {
			return base
		}
	} else if !full && (rl.maxFileSize <= 0 || lastSize < rl.maxFileSize) {
		return fmt.Sprintf("%s-%s_%02d.log", rl.prefix, week, highest)
	}

	return fmt.Sprintf("%s-%s_%02d.log", rl.prefix, week, highest+1)
}

func (rl *RotatingLogger) isFull(path string) bool {
	if rl.maxFileSize <= 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() >= rl.maxFileSize
}

// highestNumbered returns the highest sequence number used this week and the size of that file
func (rl *RotatingLogger) highestNumbered(week string) (int, int64) {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(rl.prefix+"-"+week) + `_(\d{2})\.log$`)
	matches, _ := filepath.Glob(filepath.Join(rl.logDir, fmt.Sprintf("%s-%s_??.log", rl.prefix, week)))

	highest := 0
	var size int64
	for _, match := range matches {
		m := pattern.FindStringSubmatch(filepath.Base(match))
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		if num > highest {
			highest = num
			size = 0
			if info, err := os.Stat(match); err == nil {
				size = info.Size()
			}
		}
	}
	return highest, size
}

// Write implements io.Writer, rotating on week change or when p would exceed the size cap
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	week := getWeekKey(time.Now())
	switch {
	case rl.currentFile == nil || rl.currentWeek != week:
		if err := rl.rotate(week, false); err != nil {
			return 0, err
		}
	case rl.maxFileSize > 0 && rl.currentSize > 0 && rl.currentSize+int64(len(p)) > rl.maxFileSize:
		if err := rl.rotate(week, true); err != nil {
			return 0, err
		}
	}

	n, err := rl.currentFile.Write(p)
	rl.currentSize += int64(n)
	return n, err
}

func (rl *RotatingLogger) cleanupLoop(every time.Duration) {
	defer close(rl.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			if _, err := rl.cleanupOldLogs(time.Now()); err != nil {
				fmt.Fprintf(os.Stderr, "failed to clean up old logs: %v\n", err)
			}
		}
	}
}

// cleanupOldLogs removes log files last modified before now minus the retention period
func (rl *RotatingLogger) cleanupOldLogs(now time.Time) (int, error) {
	entries, err := os.ReadDir(rl.logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := now.Add(-rl.retention)
	deleted := 0

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, rl.prefix+"-") || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rl.logDir, name)); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// Close stops the cleanup goroutine and closes the current file
func (rl *RotatingLogger) Close() error {
	select {
	case <-rl.stop:
	default:
		close(rl.stop)
	}
	<-rl.done

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.currentFile == nil {
		return nil
	}
	err := rl.currentFile.Close()
	rl.currentFile = nil
	return err
}
