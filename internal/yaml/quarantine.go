package yaml

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Quarantine moves a corrupted record into <workspace>/quarantine/ with a
// timestamped name so it stays available for inspection.
func Quarantine(workspaceDir, filePath string) error {
	quarantineDir := filepath.Join(workspaceDir, "quarantine")
	if err := os.MkdirAll(quarantineDir, 0755); err != nil {
		return fmt.Errorf("create quarantine dir: %w", err)
	}

	baseName := filepath.Base(filePath)
	timestamp := time.Now().Format("20060102T150405")
	quarantineName := fmt.Sprintf("%s.%s.corrupt", baseName, timestamp)
	quarantinePath := filepath.Join(quarantineDir, quarantineName)

	if err := os.Rename(filePath, quarantinePath); err != nil {
		return fmt.Errorf("move to quarantine: %w", err)
	}

	log.Printf("quarantined corrupted file: %s → %s", filePath, quarantinePath)
	return nil
}

// RestoreFromBackup replaces a record with its .bak sibling, if the backup
// itself still parses.
func RestoreFromBackup(filePath string) error {
	bakPath := filePath + ".bak"
	if _, err := os.Stat(bakPath); os.IsNotExist(err) {
		return fmt.Errorf("no backup file: %s", bakPath)
	}

	content, err := os.ReadFile(bakPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	if err := validateYAML(content); err != nil {
		return fmt.Errorf("backup YAML is also corrupted: %w", err)
	}

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}

	log.Printf("restored from backup: %s → %s", bakPath, filePath)
	return nil
}

// Recover quarantines a corrupted record and attempts a .bak restore.
// Returns true if the record was restored. Records are content-addressed,
// so there is no skeleton to regenerate: an unrestorable record simply
// becomes absent, which readers already tolerate.
func Recover(workspaceDir, filePath string) (bool, error) {
	if err := Quarantine(workspaceDir, filePath); err != nil {
		return false, fmt.Errorf("quarantine failed: %w", err)
	}

	if err := RestoreFromBackup(filePath); err != nil {
		log.Printf("backup restore failed for %s: %v; record left absent", filePath, err)
		return false, nil
	}
	return true, nil
}
