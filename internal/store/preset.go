package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/google/uuid"
)

// Preset is a stored pose preset.
type Preset struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Bones     map[string][3]float64 `json:"bones"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Pose converts p to the humanoid preset it describes.
func (p *Preset) Pose() humanoid.Preset {
	return humanoid.Preset{Name: p.Name, Bones: p.Bones}
}

// PresetRepository provides CRUD operations for presets.
type PresetRepository struct {
	db *sql.DB
}

// Presets returns the preset repository for this store.
func (s *Store) Presets() *PresetRepository {
	return &PresetRepository{db: s.db}
}

// Create inserts a new preset. An empty ID is replaced with a fresh UUID.
func (r *PresetRepository) Create(p *Preset) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	bones, err := encodeBones(p.Bones)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO presets (id, name, bones, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, bones, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByName retrieves a preset by its name.
func (r *PresetRepository) GetByName(name string) (*Preset, error) {
	row := r.db.QueryRow(
		`SELECT id, name, bones, created_at, updated_at FROM presets WHERE name = ?`,
		name,
	)
	p, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all presets ordered by name.
func (r *PresetRepository) List() ([]*Preset, error) {
	rows, err := r.db.Query(
		`SELECT id, name, bones, created_at, updated_at FROM presets ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presets []*Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return presets, nil
}

// Update replaces the bones of the preset with p's name.
func (r *PresetRepository) Update(p *Preset) error {
	p.UpdatedAt = time.Now()

	bones, err := encodeBones(p.Bones)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE presets SET bones = ?, updated_at = ? WHERE name = ?`,
		bones, p.UpdatedAt, p.Name,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a preset by name.
func (r *PresetRepository) Delete(name string) error {
	result, err := r.db.Exec(`DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed stores pose under its name unless a preset with that name exists.
// It reports whether a row was inserted.
func (r *PresetRepository) Seed(pose humanoid.Preset) (bool, error) {
	_, err := r.GetByName(pose.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if err := r.Create(&Preset{Name: pose.Name, Bones: pose.Bones}); err != nil {
		return false, err
	}
	return true, nil
}

func encodeBones(bones map[string][3]float64) (string, error) {
	if bones == nil {
		bones = map[string][3]float64{}
	}
	data, err := json.Marshal(bones)
	if err != nil {
		return "", fmt.Errorf("failed to encode bones: %w", err)
	}
	return string(data), nil
}

func scanPreset(row scanner) (*Preset, error) {
	p := &Preset{}
	var bones string
	if err := row.Scan(&p.ID, &p.Name, &bones, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bones), &p.Bones); err != nil {
		return nil, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return p, nil
}
