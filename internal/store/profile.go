package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/repsense/internal/rep"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("already exists")
)

// Profile is a named detector tuning.
type Profile struct {
	ID        string
	Name      string
	Config    rep.Config
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, exercise, side, down_threshold, bottom_threshold, up_threshold,
	hysteresis, rom_target, alpha, min_rep_duration_ms, min_visibility, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var exercise, side string
	c := &p.Config

	err := row.Scan(&p.ID, &p.Name, &exercise, &side,
		&c.DownThreshold, &c.BottomThreshold, &c.UpThreshold,
		&c.Hysteresis, &c.ROMTarget, &c.Alpha, &c.MinRepDurationMs, &c.MinVisibility,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Exercise = rep.Exercise(exercise)
	c.Side = rep.Side(side)
	return p, nil
}

// Create validates and inserts a new profile.
func (r *ProfileRepository) Create(p *Profile) error {
	if err := p.Config.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	c := p.Config
	_, err := r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(c.Exercise), string(c.Side),
		c.DownThreshold, c.BottomThreshold, c.UpThreshold,
		c.Hysteresis, c.ROMTarget, c.Alpha, c.MinRepDurationMs, c.MinVisibility,
		p.CreatedAt, p.UpdatedAt,
	)
	return mapConstraint(err)
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List retrieves profiles ordered by name. A non-empty exercise filters the result.
func (r *ProfileRepository) List(exercise rep.Exercise) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var args []any
	if exercise != "" {
		query += ` WHERE exercise = ?`
		args = append(args, string(exercise))
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Update validates and stores a changed profile.
func (r *ProfileRepository) Update(p *Profile) error {
	if err := p.Config.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	c := p.Config
	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, exercise = ?, side = ?, down_threshold = ?,
		 bottom_threshold = ?, up_threshold = ?, hysteresis = ?, rom_target = ?, alpha = ?,
		 min_rep_duration_ms = ?, min_visibility = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, string(c.Exercise), string(c.Side), c.DownThreshold,
		c.BottomThreshold, c.UpThreshold, c.Hysteresis, c.ROMTarget, c.Alpha,
		c.MinRepDurationMs, c.MinVisibility, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return mapConstraint(err)
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

// Delete removes a profile by its ID.
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
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

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
