package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AbdouB/dialogue/internal/models"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by writes that matched no scenario
	ErrNotFound = errors.New("scenario not found")
	// ErrNameTaken is returned when a scenario name is already in use
	ErrNameTaken = errors.New("scenario name already in use")
)

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 100

// ScenarioRepository handles scenario library operations
type ScenarioRepository struct {
	db *DB
}

// NewScenarioRepository creates a new scenario repository
func NewScenarioRepository(db *DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// Create stores a new scenario
func (r *ScenarioRepository) Create(saved *models.SavedScenario) error {
	scenarioData, err := json.Marshal(saved)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scenarios (
			id, name, country, created_timestamp, updated_timestamp, scenario_data
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		saved.ID,
		saved.Name,
		saved.Country,
		saved.CreatedTimestamp,
		saved.UpdatedTimestamp,
		string(scenarioData),
	)
	return translate(err, saved.Name)
}

// Get retrieves a scenario by ID
func (r *ScenarioRepository) Get(id string) (*models.SavedScenario, error) {
	return r.getOne(`SELECT scenario_data FROM scenarios WHERE id = ?`, id)
}

// GetByName retrieves a scenario by name
func (r *ScenarioRepository) GetByName(name string) (*models.SavedScenario, error) {
	return r.getOne(`SELECT scenario_data FROM scenarios WHERE name = ?`, name)
}

// Find looks a reference up as an ID first, then as a name
func (r *ScenarioRepository) Find(ref string) (*models.SavedScenario, error) {
	saved, err := r.Get(ref)
	if err != nil || saved != nil {
		return saved, err
	}
	return r.GetByName(ref)
}

func (r *ScenarioRepository) getOne(query, arg string) (*models.SavedScenario, error) {
	var scenarioData string
	err := r.db.QueryRow(query, arg).Scan(&scenarioData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var saved models.SavedScenario
	if err := json.Unmarshal([]byte(scenarioData), &saved); err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", arg, err)
	}
	return &saved, nil
}

// List lists scenarios, most recently updated first. An empty country
// lists every country.
func (r *ScenarioRepository) List(country string, limit int) ([]models.ScenarioSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var query string
	var args []interface{}
	if country != "" {
		query = `SELECT id, name, country, created_timestamp, updated_timestamp FROM scenarios WHERE country = ? ORDER BY updated_timestamp DESC, name LIMIT ?`
		args = []interface{}{country, limit}
	} else {
		query = `SELECT id, name, country, created_timestamp, updated_timestamp FROM scenarios ORDER BY updated_timestamp DESC, name LIMIT ?`
		args = []interface{}{limit}
	}

	summaries := []models.ScenarioSummary{}
	if err := r.db.Select(&summaries, query, args...); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Update replaces a stored scenario and bumps its update time
func (r *ScenarioRepository) Update(saved *models.SavedScenario) error {
	saved.UpdatedTimestamp = timestamp()
	if saved.Scenario != nil {
		saved.Country = saved.Scenario.Metadata.Country
	}

	scenarioData, err := json.Marshal(saved)
	if err != nil {
		return err
	}

	query := `
		UPDATE scenarios SET
			name = ?,
			country = ?,
			updated_timestamp = ?,
			scenario_data = ?
		WHERE id = ?
	`
	res, err := r.db.Exec(query,
		saved.Name,
		saved.Country,
		saved.UpdatedTimestamp,
		string(scenarioData),
		saved.ID,
	)
	if err != nil {
		return translate(err, saved.Name)
	}
	return requireRow(res)
}

// Delete removes a scenario
func (r *ScenarioRepository) Delete(id string) error {
	res, err := r.db.Exec(`DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error, name string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	return err
}
