// CLAUDE:SUMMARY Gob serialization of dictionary entry hashmaps for fast engine loads.
package dict

import (
	"encoding/gob"
	"fmt"
	"os"
)

// loadGob deserializes entries from a gob-encoded file into d.Entries.
func (d *Dictionary) loadGob(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	entries := make(map[string]*Entry)
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("decode gob: %w", err)
	}
	// Keys in the gob were written normalized by the importer; re-key in case
	// the manifest's normalizer changed since.
	for k, e := range entries {
		d.Entries[d.normalize(k)] = e
	}
	return nil
}

// SaveGob serializes entries to a gob-encoded file at path.
func SaveGob(entries map[string]*Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		f.Close()
		return fmt.Errorf("encode gob: %w", err)
	}
	return f.Close()
}
