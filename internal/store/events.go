package store

import (
	"encoding/json"
	"fmt"
	"os"

	"famsync/internal/models"
)

// EventFile is the on-disk shape of the local event collection plus the
// account's sync settings. The sync engine never touches this file; the CLI
// loads it, hands the records to the engine, and writes the result back.
type EventFile struct {
	Settings models.SyncSettings     `json:"settings"`
	Events   []*models.CalendarEvent `json:"events"`
}

// LoadEvents reads the event file. A missing file yields an empty collection
// with default settings so a fresh checkout works without setup.
func LoadEvents(path string) (*EventFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &EventFile{
				Settings: models.SyncSettings{
					Enabled:             true,
					Direction:           models.DirectionBoth,
					SyncIntervalMinutes: 15,
				},
			}, nil
		}
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}

	var ef EventFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("failed to parse event file: %w", err)
	}
	return &ef, nil
}

// SaveEvents writes the collection back to disk.
func SaveEvents(path string, ef *EventFile) error {
	data, err := json.MarshalIndent(ef, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal event file: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
