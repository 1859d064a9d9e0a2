package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPositions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.json")

	data, err := json.Marshal([]map[string]string{
		{"player_id": "p1", "name": "Alice", "amount": "50"},
		{"player_id": "p2", "name": "Bob", "amount": "-50"},
	})
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	positions := loadPositions(path)
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if positions[0].PlayerID != "p1" || !positions[0].Amount.Equal(positions[1].Amount.Neg()) {
		t.Fatalf("unexpected positions: %+v", positions)
	}
}

func TestLocalIDGeneratorSequence(t *testing.T) {
	g := &localIDGenerator{}
	if g.Generate() != "local-1" || g.Generate() != "local-2" {
		t.Fatalf("expected sequential local ids")
	}
}
