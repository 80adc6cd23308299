package gdpr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupExportFiles removes export artifacts older than olderThanDays and
// returns how many went. Files younger than MinExportAge are always kept so
// an export in progress is never swept. A non-positive olderThanDays uses the
// configured retention.
func (s *Service) CleanupExportFiles(olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		olderThanDays = s.cfg.RetentionDays
	}
	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -olderThanDays)
	if guard := now.Add(-s.cfg.MinExportAge); guard.Before(cutoff) {
		cutoff = guard
	}

	entries, err := os.ReadDir(s.cfg.ExportDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, newError("cleanup", KindStorage, fmt.Errorf("read export dir: %w", err))
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isExportArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.cfg.ExportDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).WithField("file", entry.Name()).Warn("failed to remove export artifact")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.metrics.filesRemoved.Add(float64(removed))
		s.log.WithFields(logrus.Fields{"removed": removed, "older_than_days": olderThanDays}).Info("expired export artifacts removed")
	}
	return removed, nil
}

func isExportArtifact(name string) bool {
	ext := filepath.Ext(name)
	return strings.HasPrefix(name, exportFilePrefix) && (ext == ".zip" || ext == ".json")
}

// RunCleanup removes expired artifacts on every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupExportFiles(s.cfg.RetentionDays); err != nil {
				s.log.WithError(err).Error("export cleanup failed")
			}
		}
	}
}
