package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/puppet/internal/retarget"
	"github.com/ayusman/puppet/internal/tracking"
)

// Calibration is a reach snapshot captured during a session.
type Calibration struct {
	SessionID string            `json:"session_id"`
	Side      string            `json:"side"`
	Snapshot  retarget.Snapshot `json:"snapshot"`
}

// CalibrationRepository stores reach snapshots.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Save stores the snapshot for one side of a session. A session holds at
// most one snapshot per side; saving again replaces it.
func (r *CalibrationRepository) Save(sessionID string, side tracking.Side, snap retarget.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO calibrations (session_id, side, data, captured_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id, side) DO UPDATE SET data = excluded.data, captured_at = excluded.captured_at`,
		sessionID, side.String(), string(data), snap.CapturedAt,
	)
	return err
}

// ListBySession retrieves the snapshots of a session ordered by side.
func (r *CalibrationRepository) ListBySession(sessionID string) ([]Calibration, error) {
	rows, err := r.db.Query(
		`SELECT session_id, side, data FROM calibrations WHERE session_id = ? ORDER BY side`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Calibration
	for rows.Next() {
		var c Calibration
		var data string
		if err := rows.Scan(&c.SessionID, &c.Side, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &c.Snapshot); err != nil {
			return nil, fmt.Errorf("calibration %s/%s: %w", c.SessionID, c.Side, err)
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
