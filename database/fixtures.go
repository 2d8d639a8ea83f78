package database

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Catalog fixtures mirror the seeded taxonomy: makes with their applicable
// years, each carrying models and trims with per-level year applicability.

type fixtureTrim struct {
	Name  string `json:"name"`
	Years []int  `json:"years"`
}

type fixtureModel struct {
	Name  string        `json:"name"`
	Years []int         `json:"years"`
	Trims []fixtureTrim `json:"trims"`
}

type fixtureMake struct {
	Name   string         `json:"name"`
	Years  []int          `json:"years"`
	Models []fixtureModel `json:"models"`
}

type catalogFixtures struct {
	Makes []fixtureMake `json:"makes"`
}

// SeedCatalog loads the catalog fixture file into an empty database. A
// database that already has makes is left untouched, so reruns are safe.
func SeedCatalog(fixturesPath string) error {
	var count int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM makes`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count makes: %w", err)
	}
	if count > 0 {
		logrus.WithField("makes", count).Debug("Catalog already seeded, skipping fixtures")
		return nil
	}

	raw, err := os.ReadFile(fixturesPath)
	if err != nil {
		return fmt.Errorf("failed to read fixtures file: %w", err)
	}

	var fixtures catalogFixtures
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return fmt.Errorf("failed to parse fixtures file: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin fixture transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mk := range fixtures.Makes {
		var makeID int64
		if err := tx.QueryRow(`INSERT INTO makes (name) VALUES ($1) RETURNING id`, mk.Name).Scan(&makeID); err != nil {
			return fmt.Errorf("failed to insert make %q: %w", mk.Name, err)
		}
		for _, year := range mk.Years {
			if _, err := tx.Exec(`INSERT INTO make_years (make_id, year) VALUES ($1, $2)`, makeID, year); err != nil {
				return fmt.Errorf("failed to insert make year %q/%d: %w", mk.Name, year, err)
			}
		}

		for _, mdl := range mk.Models {
			var modelID int64
			if err := tx.QueryRow(`INSERT INTO car_models (make_id, name) VALUES ($1, $2) RETURNING id`, makeID, mdl.Name).Scan(&modelID); err != nil {
				return fmt.Errorf("failed to insert model %q: %w", mdl.Name, err)
			}
			for _, year := range mdl.Years {
				if _, err := tx.Exec(`INSERT INTO car_model_years (car_model_id, year) VALUES ($1, $2)`, modelID, year); err != nil {
					return fmt.Errorf("failed to insert model year %q/%d: %w", mdl.Name, year, err)
				}
			}

			for _, tr := range mdl.Trims {
				var trimID int64
				if err := tx.QueryRow(`INSERT INTO trims (car_model_id, name) VALUES ($1, $2) RETURNING id`, modelID, tr.Name).Scan(&trimID); err != nil {
					return fmt.Errorf("failed to insert trim %q: %w", tr.Name, err)
				}
				for _, year := range tr.Years {
					if _, err := tx.Exec(`INSERT INTO trim_years (trim_id, year) VALUES ($1, $2)`, trimID, year); err != nil {
						return fmt.Errorf("failed to insert trim year %q/%d: %w", tr.Name, year, err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fixtures: %w", err)
	}

	logrus.WithField("makes", len(fixtures.Makes)).Info("Catalog fixtures seeded")
	return nil
}
