package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/whachapay/backend/models"
)

// CatalogService resolves the cascading year -> make -> model -> trim
// selection against the fixture-seeded catalog tables. Unknown ids resolve
// to empty slices rather than errors, since the same queries back empty
// placeholder option lists.
type CatalogService struct {
	DB *sql.DB
}

func NewCatalogService(db *sql.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// Years returns the distinct years present in make_years, ascending.
func (s *CatalogService) Years(ctx context.Context) ([]int, error) {
	query := `SELECT DISTINCT year FROM make_years ORDER BY year`

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query years: %w", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// MakesForYear returns all makes having at least one make_years row for the
// given year, ordered by name.
func (s *CatalogService) MakesForYear(ctx context.Context, year int) ([]models.Make, error) {
	query := `SELECT DISTINCT m.id, m.name
              FROM makes m
              JOIN make_years my ON my.make_id = m.id
              WHERE my.year = $1
              ORDER BY m.name`

	rows, err := s.DB.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query makes: %w", err)
	}
	defer rows.Close()

	makes := []models.Make{}
	for rows.Next() {
		var m models.Make
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to scan make: %w", err)
		}
		makes = append(makes, m)
	}
	return makes, rows.Err()
}

// ModelsForMakeYear returns the make's models that also have a
// car_model_years row for the given year, ordered by name.
func (s *CatalogService) ModelsForMakeYear(ctx context.Context, makeID int64, year int) ([]models.CarModel, error) {
	query := `SELECT DISTINCT cm.id, cm.make_id, cm.name
              FROM car_models cm
              JOIN car_model_years cmy ON cmy.car_model_id = cm.id
              WHERE cm.make_id = $1 AND cmy.year = $2
              ORDER BY cm.name`

	rows, err := s.DB.QueryContext(ctx, query, makeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	carModels := []models.CarModel{}
	for rows.Next() {
		var cm models.CarModel
		if err := rows.Scan(&cm.ID, &cm.MakeID, &cm.Name); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		carModels = append(carModels, cm)
	}
	return carModels, rows.Err()
}

// TrimsForModelYear returns the model's trims that also have a trim_years
// row for the given year, ordered by name.
func (s *CatalogService) TrimsForModelYear(ctx context.Context, carModelID int64, year int) ([]models.Trim, error) {
	query := `SELECT DISTINCT t.id, t.car_model_id, t.name
              FROM trims t
              JOIN trim_years ty ON ty.trim_id = t.id
              WHERE t.car_model_id = $1 AND ty.year = $2
              ORDER BY t.name`

	rows, err := s.DB.QueryContext(ctx, query, carModelID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query trims: %w", err)
	}
	defer rows.Close()

	trims := []models.Trim{}
	for rows.Next() {
		var t models.Trim
		if err := rows.Scan(&t.ID, &t.CarModelID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan trim: %w", err)
		}
		trims = append(trims, t)
	}
	return trims, rows.Err()
}

// MakeName returns the make's display name, or "" when the id is unknown.
func (s *CatalogService) MakeName(ctx context.Context, makeID int64) (string, error) {
	return s.nameByID(ctx, `SELECT name FROM makes WHERE id = $1`, makeID)
}

// ModelName returns the model's display name, or "" when the id is unknown.
func (s *CatalogService) ModelName(ctx context.Context, carModelID int64) (string, error) {
	return s.nameByID(ctx, `SELECT name FROM car_models WHERE id = $1`, carModelID)
}

// TrimName returns the trim's display name, or "" when the id is unknown.
func (s *CatalogService) TrimName(ctx context.Context, trimID int64) (string, error) {
	return s.nameByID(ctx, `SELECT name FROM trims WHERE id = $1`, trimID)
}

func (s *CatalogService) nameByID(ctx context.Context, query string, id int64) (string, error) {
	var name string
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to scan name: %w", err)
	}
	return name, nil
}

// GetMakeYear returns the make_years row for a make and year, or nil when
// the pair is not in the catalog.
func (s *CatalogService) GetMakeYear(ctx context.Context, makeID int64, year int) (*models.MakeYear, error) {
	query := `SELECT id, make_id, year FROM make_years WHERE make_id = $1 AND year = $2`

	var my models.MakeYear
	err := s.DB.QueryRowContext(ctx, query, makeID, year).Scan(&my.ID, &my.MakeID, &my.Year)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan make year: %w", err)
	}
	return &my, nil
}
