// Package workflow holds the per-visitor selection state that carries a
// session from vehicle selection through dealer selection to deal entry.
// The state is an explicit tagged machine: each stage names the fields that
// must be populated, and handlers reject requests whose required stage has
// not been reached instead of trusting key presence.
package workflow

import (
	"github.com/whachapay/backend/models"
	"github.com/whachapay/backend/shared"
)

type Stage int

const (
	StageEmpty Stage = iota
	StageVehicleChosen
	StageDealerChosen
	StageDealRecorded
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageVehicleChosen:
		return "vehicle_chosen"
	case StageDealerChosen:
		return "dealer_chosen"
	case StageDealRecorded:
		return "deal_recorded"
	}
	return "unknown"
}

// VehicleSelection is the validated vehicle choice plus the display names
// resolved at submission time.
type VehicleSelection struct {
	Year       int    `json:"year"`
	MakeID     int64  `json:"make_id"`
	MakeName   string `json:"make_name"`
	ModelID    int64  `json:"model_id"`
	ModelName  string `json:"model_name"`
	MakeYearID int64  `json:"make_year_id"`
}

// State accumulates the visitor's progress. Fields past the current stage
// are zero.
type State struct {
	Stage         Stage             `json:"stage"`
	Vehicle       *VehicleSelection `json:"vehicle,omitempty"`
	Location      string            `json:"location,omitempty"`
	Places        *models.Places    `json:"places,omitempty"`
	DealerPlaceID string            `json:"dealer_place_id,omitempty"`
	DealID        int64             `json:"deal_id,omitempty"`
	TrimFilter    *int64            `json:"trim_filter,omitempty"`
}

// NewState returns the empty starting state.
func NewState() *State {
	return &State{Stage: StageEmpty}
}

// BeginSelection records a validated vehicle and location together with the
// places lookup result (possibly empty), discarding any downstream dealer
// or deal selection from an earlier pass.
func (s *State) BeginSelection(vehicle VehicleSelection, location string, places *models.Places) {
	if places == nil {
		places = &models.Places{}
	}
	s.Stage = StageVehicleChosen
	s.Vehicle = &vehicle
	s.Location = location
	s.Places = places
	s.DealerPlaceID = ""
	s.DealID = 0
	s.TrimFilter = nil
}

// ChooseDealer selects one entry from the cached places result for deal
// entry. A place id that is not in the cache is a not-found condition, never
// a silent fallback.
func (s *State) ChooseDealer(placeID string) (*models.PlaceResult, error) {
	if err := s.RequireVehicle(); err != nil {
		return nil, err
	}

	place := s.Places.FindResult(placeID)
	if place == nil {
		return nil, shared.NewNotFoundError("place is not in the cached lookup result")
	}

	s.Stage = StageDealerChosen
	s.DealerPlaceID = placeID
	s.DealID = 0
	return place, nil
}

// MarkDealRecorded stores the persisted deal's id and advances the machine.
func (s *State) MarkDealRecorded(dealID int64) error {
	if s.Stage < StageDealerChosen {
		return shared.NewNotFoundError("no dealer selected")
	}
	s.Stage = StageDealRecorded
	s.DealID = dealID
	return nil
}

// RequireVehicle rejects requests made before a vehicle and location have
// been submitted.
func (s *State) RequireVehicle() error {
	if s.Stage < StageVehicleChosen || s.Vehicle == nil || s.Places == nil {
		return shared.NewNotFoundError("no vehicle selection in session")
	}
	return nil
}

// RequireDealer rejects requests made before a dealer has been chosen.
func (s *State) RequireDealer() error {
	if err := s.RequireVehicle(); err != nil {
		return err
	}
	if s.Stage < StageDealerChosen || s.DealerPlaceID == "" {
		return shared.NewNotFoundError("no dealer selection in session")
	}
	return nil
}

// RequireDeal rejects requests made before a deal has been recorded.
func (s *State) RequireDeal() error {
	if err := s.RequireDealer(); err != nil {
		return err
	}
	if s.Stage < StageDealRecorded || s.DealID == 0 {
		return shared.NewNotFoundError("no recorded deal in session")
	}
	return nil
}

// SetTrimFilter remembers the visitor's deal-listing trim filter; nil means
// all trims.
func (s *State) SetTrimFilter(trimID *int64) {
	s.TrimFilter = trimID
}
