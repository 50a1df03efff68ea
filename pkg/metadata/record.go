// Package metadata stores one record per uploaded replay, keyed by content
// fingerprint, and lists the fingerprints already recorded.
package metadata

import (
	"context"
	"time"

	"github.com/sdejongh/replaysync/pkg/replay"
)

// Store is the remote metadata collaborator of the sync driver
type Store interface {
	// ListFingerprints returns the fingerprint of every stored record
	ListFingerprints(ctx context.Context) ([]string, error)
	// UpsertByFingerprint inserts rec, or replaces the record with the same fingerprint
	UpsertByFingerprint(ctx context.Context, fingerprint string, rec *ReplayRecord) error
}

// ReplayRecord is the document written for an uploaded replay
type ReplayRecord struct {
	Mode         int    `db:"mode" json:"mode"`
	Version      int    `db:"version" json:"version"`
	BeatmapHash  string `db:"beatmap_hash" json:"beatmap_hash"`
	PlayerName   string `db:"player_name" json:"player_name"`
	ReplayHash   string `db:"replay_hash" json:"replay_hash"`
	Count300     int    `db:"count_300" json:"count_300"`
	Count100     int    `db:"count_100" json:"count_100"`
	Count50      int    `db:"count_50" json:"count_50"`
	CountGeki    int    `db:"count_geki" json:"count_geki"`
	CountKatu    int    `db:"count_katu" json:"count_katu"`
	CountMiss    int    `db:"count_miss" json:"count_miss"`
	Score        int    `db:"score" json:"score"`
	MaxCombo     int    `db:"max_combo" json:"max_combo"`
	PerfectCombo bool   `db:"perfect_combo" json:"perfect_combo"`
	Mods         int    `db:"mods" json:"mods"`
	Timestamp    string `db:"timestamp" json:"timestamp"` // RFC3339, UTC
	SHA256       string `db:"sha256" json:"sha256"`
}

// NewRecord maps a decoded replay and its fingerprint to a record
func NewRecord(r *replay.Replay, fingerprint string) *ReplayRecord {
	return &ReplayRecord{
		Mode:         int(r.Mode),
		Version:      int(r.Version),
		BeatmapHash:  r.BeatmapHash,
		PlayerName:   r.PlayerName,
		ReplayHash:   r.ReplayHash,
		Count300:     int(r.Count300),
		Count100:     int(r.Count100),
		Count50:      int(r.Count50),
		CountGeki:    int(r.CountGeki),
		CountKatu:    int(r.CountKatu),
		CountMiss:    int(r.CountMiss),
		Score:        int(r.Score),
		MaxCombo:     int(r.MaxCombo),
		PerfectCombo: r.PerfectCombo,
		Mods:         int(r.Mods),
		Timestamp:    r.Timestamp.UTC().Format(time.RFC3339),
		SHA256:       fingerprint,
	}
}
