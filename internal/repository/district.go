package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"political-game-engine/internal/model"
)

// DistrictRepository handles district reference data and the control ledger.
type DistrictRepository struct {
	db Querier
}

// NewDistrictRepository creates a new DistrictRepository instance.
func NewDistrictRepository(db Querier) *DistrictRepository {
	return &DistrictRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *DistrictRepository) WithTx(tx pgx.Tx) *DistrictRepository {
	return &DistrictRepository{db: tx}
}

const districtColumns = `id, name, influence_yield, money_yield, information_yield, force_yield`

func scanDistrict(row pgx.Row) (*model.District, error) {
	var d model.District
	err := row.Scan(&d.ID, &d.Name, &d.InfluenceYield, &d.MoneyYield, &d.InformationYield, &d.ForceYield)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDistrictNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Seed inserts a district if a district with the same name does not exist.
func (r *DistrictRepository) Seed(ctx context.Context, d *model.District) (*model.District, error) {
	const query = `
		INSERT INTO districts (name, influence_yield, money_yield, information_yield, force_yield)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + districtColumns

	seeded, err := scanDistrict(r.db.QueryRow(ctx, query,
		d.Name, d.InfluenceYield, d.MoneyYield, d.InformationYield, d.ForceYield))
	if err != nil {
		return nil, fmt.Errorf("failed to seed district: %w", err)
	}
	return seeded, nil
}

// GetByID retrieves a district. Returns ErrDistrictNotFound if absent.
func (r *DistrictRepository) GetByID(ctx context.Context, id int64) (*model.District, error) {
	const query = `SELECT ` + districtColumns + ` FROM districts WHERE id = $1`

	d, err := scanDistrict(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrDistrictNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get district: %w", err)
	}
	return d, nil
}

// Exists checks if a district with the given ID exists.
func (r *DistrictRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM districts WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check district existence: %w", err)
	}
	return exists, nil
}

// List returns all districts.
func (r *DistrictRepository) List(ctx context.Context) ([]*model.District, error) {
	const query = `SELECT ` + districtColumns + ` FROM districts ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	var districts []*model.District
	for rows.Next() {
		d, err := scanDistrict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating districts: %w", err)
	}
	return districts, nil
}

const controlColumns = `player_id, district_id, control_points, last_action_cycle_id, updated_at`

func scanControl(row pgx.Row) (*model.DistrictControl, error) {
	var c model.DistrictControl
	err := row.Scan(&c.PlayerID, &c.DistrictID, &c.ControlPoints, &c.LastActionCycleID, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetControl retrieves a control row. A missing row reads as zero control.
func (r *DistrictRepository) GetControl(ctx context.Context, playerID, districtID int64) (*model.DistrictControl, error) {
	const query = `SELECT ` + controlColumns + ` FROM district_control
		WHERE player_id = $1 AND district_id = $2`

	c, err := scanControl(r.db.QueryRow(ctx, query, playerID, districtID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.DistrictControl{PlayerID: playerID, DistrictID: districtID}, nil
		}
		return nil, fmt.Errorf("failed to get district control: %w", err)
	}
	return c, nil
}

// ApplyControlDelta adjusts a player's control in a district, creating
// the row on first effect and flooring the balance at zero. touchCycleID,
// when non-zero, records the cycle in which the player acted there.
// Returns the resulting control points.
func (r *DistrictRepository) ApplyControlDelta(ctx context.Context, playerID, districtID, delta, touchCycleID int64) (int64, error) {
	const query = `
		INSERT INTO district_control (player_id, district_id, control_points, last_action_cycle_id)
		VALUES ($1, $2, GREATEST(0, $3), $4)
		ON CONFLICT (player_id, district_id) DO UPDATE SET
			control_points = GREATEST(0, district_control.control_points + $3),
			last_action_cycle_id = CASE WHEN $4 > 0 THEN $4 ELSE district_control.last_action_cycle_id END,
			updated_at = NOW()
		RETURNING control_points
	`

	var points int64
	if err := r.db.QueryRow(ctx, query, playerID, districtID, delta, touchCycleID).Scan(&points); err != nil {
		return 0, fmt.Errorf("failed to apply control delta: %w", err)
	}
	return points, nil
}

// ListControlsByDistrict returns every control row in a district, highest
// first.
func (r *DistrictRepository) ListControlsByDistrict(ctx context.Context, districtID int64) ([]model.DistrictControl, error) {
	const query = `SELECT ` + controlColumns + ` FROM district_control
		WHERE district_id = $1
		ORDER BY control_points DESC, player_id`

	rows, err := r.db.Query(ctx, query, districtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list district controls: %w", err)
	}
	defer rows.Close()

	var controls []model.DistrictControl
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan district control: %w", err)
		}
		controls = append(controls, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating district controls: %w", err)
	}
	return controls, nil
}

// ListAllControls returns every control row in the world.
func (r *DistrictRepository) ListAllControls(ctx context.Context) ([]model.DistrictControl, error) {
	const query = `SELECT ` + controlColumns + ` FROM district_control
		ORDER BY district_id, control_points DESC, player_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list controls: %w", err)
	}
	defer rows.Close()

	var controls []model.DistrictControl
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan district control: %w", err)
		}
		controls = append(controls, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating controls: %w", err)
	}
	return controls, nil
}

// ApplyDecay removes points from every control row untouched during the
// closed cycle, flooring at zero. Returns the number of rows decayed.
func (r *DistrictRepository) ApplyDecay(ctx context.Context, closedCycleID, points int64) (int64, error) {
	const query = `
		UPDATE district_control
		SET control_points = GREATEST(0, control_points - $2), updated_at = NOW()
		WHERE last_action_cycle_id <> $1 AND control_points > 0
	`

	tag, err := r.db.Exec(ctx, query, closedCycleID, points)
	if err != nil {
		return 0, fmt.Errorf("failed to apply decay: %w", err)
	}
	return tag.RowsAffected(), nil
}
