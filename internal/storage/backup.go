package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// BackupConfig controls the periodic snapshot service.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// BackupService periodically writes every persisted record to a
// timestamped JSON file and prunes old snapshots.
type BackupService struct {
	store  Store
	config BackupConfig
	logger *zerolog.Logger
}

func NewBackupService(store Store, cfg BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{store: store, config: cfg, logger: logger}
}

// Start runs the backup loop until ctx is cancelled. The first snapshot
// is taken immediately.
func (s *BackupService) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("backup service is disabled")
		return
	}

	interval := time.Duration(s.config.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	s.logger.Info().Dur("interval", interval).Msg("backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.PerformBackup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.PerformBackup(ctx); err != nil {
				s.logger.Error().Err(err).Msg("backup failed")
			}
			s.pruneOld()
		}
	}
}

// PerformBackup snapshots all records into one JSON file.
func (s *BackupService) PerformBackup(ctx context.Context) error {
	if err := os.MkdirAll(s.config.Path, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	snapshot := make(map[string]json.RawMessage, len(AllKeys()))
	for _, key := range AllKeys() {
		var raw json.RawMessage
		found, err := s.store.Get(ctx, key, &raw)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if found {
			snapshot[key] = raw
		}
	}

	data, err := json.MarshalIndent(map[string]any{
		"records":  snapshot,
		"backedAt": time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("dutyroster_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.config.Path, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Info().Str("path", path).Int("records", len(snapshot)).Msg("backup written")
	return nil
}

func (s *BackupService) pruneOld() {
	if s.config.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)

	entries, err := os.ReadDir(s.config.Path)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "dutyroster_") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.config.Path, entry.Name())
		if err := os.Remove(path); err == nil {
			s.logger.Debug().Str("path", path).Msg("old backup pruned")
		}
	}
}
