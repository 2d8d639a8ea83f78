package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/whachapay/backend/models"
)

// DealService persists user-submitted price deals and answers deal queries.
// All derived rows (IP address, user, user-IP pair, vehicle, dealer) are
// created through race-tolerant lookup-or-create: an INSERT ... ON CONFLICT
// DO NOTHING followed by a re-select, so concurrent submissions for the
// same natural key converge on one row.
type DealService struct {
	DB *sql.DB
}

func NewDealService(db *sql.DB) *DealService {
	return &DealService{DB: db}
}

// VehicleIdentity is the resolved (make year, make, model) triple recorded
// in the session at vehicle selection time.
type VehicleIdentity struct {
	MakeYearID int64 `json:"make_year_id"`
	MakeID     int64 `json:"make_id"`
	CarModelID int64 `json:"car_model_id"`
}

// RecordDealParams carries everything needed to persist one deal.
type RecordDealParams struct {
	Vehicle  VehicleIdentity
	Dealer   models.PlaceResult
	Email    string
	ClientIP string
	TrimID   int64
	Price    int
	DealDate time.Time
	Comment  string
}

// RecordDeal persists a price entry. Rows are written in dependency order:
// IP address and user before their pair, vehicle and dealer before the deal.
func (s *DealService) RecordDeal(ctx context.Context, params RecordDealParams) (*models.Deal, error) {
	ipID, err := s.getOrCreateIPAddress(ctx, params.ClientIP)
	if err != nil {
		return nil, err
	}

	userID, err := s.getOrCreateUser(ctx, params.Email)
	if err != nil {
		return nil, err
	}

	userIPID, err := s.getOrCreateUserIP(ctx, userID, ipID)
	if err != nil {
		return nil, err
	}

	vehicleID, err := s.getOrCreateVehicle(ctx, params.Vehicle)
	if err != nil {
		return nil, err
	}

	dealerID, err := s.getOrCreateDealer(ctx, params.Dealer)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO deals (user_ip_id, vehicle_id, trim_id, dealer_id, price, deal_date, comment)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, created_at`

	deal := models.Deal{
		UserIPID:  userIPID,
		VehicleID: vehicleID,
		TrimID:    params.TrimID,
		DealerID:  dealerID,
		Price:     params.Price,
		DealDate:  params.DealDate,
		Comment:   params.Comment,
	}
	err = s.DB.QueryRowContext(ctx, query,
		userIPID, vehicleID, params.TrimID, dealerID,
		params.Price, params.DealDate, params.Comment,
	).Scan(&deal.ID, &deal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deal: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"deal_id": deal.ID,
		"vehicle": vehicleID,
		"dealer":  dealerID,
		"price":   params.Price,
	}).Info("Deal recorded")

	return &deal, nil
}

// DealsFor returns the deals for a vehicle and dealer, optionally narrowed
// to one trim, ordered by price. Returns an empty slice when none match.
func (s *DealService) DealsFor(ctx context.Context, vehicleID, dealerID int64, trimID *int64) ([]models.Deal, error) {
	query := `SELECT id, user_ip_id, vehicle_id, trim_id, dealer_id, price, deal_date, comment, created_at
              FROM deals
              WHERE vehicle_id = $1 AND dealer_id = $2`
	args := []interface{}{vehicleID, dealerID}

	if trimID != nil {
		query += ` AND trim_id = $3`
		args = append(args, *trimID)
	}
	query += ` ORDER BY price`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		var d models.Deal
		err := rows.Scan(&d.ID, &d.UserIPID, &d.VehicleID, &d.TrimID, &d.DealerID,
			&d.Price, &d.DealDate, &d.Comment, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal: %w", err)
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// GetVehicle returns the vehicle row for an identity triple, or nil when no
// deal has been entered for it yet.
func (s *DealService) GetVehicle(ctx context.Context, identity VehicleIdentity) (*models.Vehicle, error) {
	query := `SELECT id, make_year_id, make_id, car_model_id FROM vehicles
              WHERE make_year_id = $1 AND make_id = $2 AND car_model_id = $3`

	var v models.Vehicle
	err := s.DB.QueryRowContext(ctx, query,
		identity.MakeYearID, identity.MakeID, identity.CarModelID,
	).Scan(&v.ID, &v.MakeYearID, &v.MakeID, &v.CarModelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan vehicle: %w", err)
	}
	return &v, nil
}

// GetDealer returns the dealer with the given place id, or nil.
func (s *DealService) GetDealer(ctx context.Context, placeID string) (*models.Dealer, error) {
	query := `SELECT id, place_id, location, name, address FROM dealers WHERE place_id = $1`

	var d models.Dealer
	err := s.DB.QueryRowContext(ctx, query, placeID).Scan(
		&d.ID, &d.PlaceID, &d.Location, &d.Name, &d.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan dealer: %w", err)
	}
	return &d, nil
}

// GetDeal returns the deal with the given id, or nil.
func (s *DealService) GetDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	query := `SELECT id, user_ip_id, vehicle_id, trim_id, dealer_id, price, deal_date, comment, created_at
              FROM deals WHERE id = $1`

	var d models.Deal
	err := s.DB.QueryRowContext(ctx, query, dealID).Scan(
		&d.ID, &d.UserIPID, &d.VehicleID, &d.TrimID, &d.DealerID,
		&d.Price, &d.DealDate, &d.Comment, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan deal: %w", err)
	}
	return &d, nil
}

func (s *DealService) getOrCreateIPAddress(ctx context.Context, ip string) (int64, error) {
	return s.getOrCreate(ctx, "ip address",
		`INSERT INTO ip_addresses (ip) VALUES ($1) ON CONFLICT (ip) DO NOTHING RETURNING id`,
		[]interface{}{ip},
		`SELECT id FROM ip_addresses WHERE ip = $1`,
		[]interface{}{ip})
}

func (s *DealService) getOrCreateUser(ctx context.Context, email string) (int64, error) {
	return s.getOrCreate(ctx, "user",
		`INSERT INTO users (email) VALUES ($1) ON CONFLICT (email) DO NOTHING RETURNING id`,
		[]interface{}{email},
		`SELECT id FROM users WHERE email = $1`,
		[]interface{}{email})
}

func (s *DealService) getOrCreateUserIP(ctx context.Context, userID, ipID int64) (int64, error) {
	return s.getOrCreate(ctx, "user IP",
		`INSERT INTO user_ips (user_id, ip_address_id) VALUES ($1, $2)
         ON CONFLICT (user_id, ip_address_id) DO NOTHING RETURNING id`,
		[]interface{}{userID, ipID},
		`SELECT id FROM user_ips WHERE user_id = $1 AND ip_address_id = $2`,
		[]interface{}{userID, ipID})
}

func (s *DealService) getOrCreateVehicle(ctx context.Context, identity VehicleIdentity) (int64, error) {
	return s.getOrCreate(ctx, "vehicle",
		`INSERT INTO vehicles (make_year_id, make_id, car_model_id) VALUES ($1, $2, $3)
         ON CONFLICT (make_year_id, make_id, car_model_id) DO NOTHING RETURNING id`,
		[]interface{}{identity.MakeYearID, identity.MakeID, identity.CarModelID},
		`SELECT id FROM vehicles WHERE make_year_id = $1 AND make_id = $2 AND car_model_id = $3`,
		[]interface{}{identity.MakeYearID, identity.MakeID, identity.CarModelID})
}

// getOrCreateDealer stores name and address only on first creation; a dealer
// whose details change upstream keeps its original row as long as the place
// id is unchanged.
func (s *DealService) getOrCreateDealer(ctx context.Context, place models.PlaceResult) (int64, error) {
	return s.getOrCreate(ctx, "dealer",
		`INSERT INTO dealers (place_id, location, name, address) VALUES ($1, $2, $3, $4)
         ON CONFLICT (place_id) DO NOTHING RETURNING id`,
		[]interface{}{place.PlaceID, place.Location, place.Name, place.Address},
		`SELECT id FROM dealers WHERE place_id = $1`,
		[]interface{}{place.PlaceID})
}

// getOrCreate runs an ON CONFLICT DO NOTHING insert and falls back to
// selecting the existing row when another writer won the race.
func (s *DealService) getOrCreate(ctx context.Context, entity, insertQuery string, insertArgs []interface{}, selectQuery string, selectArgs []interface{}) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, insertQuery, insertArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to insert %s: %w", entity, err)
	}

	// DO NOTHING returned no row: another writer holds the natural key.
	err = s.DB.QueryRowContext(ctx, selectQuery, selectArgs...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to select existing %s: %w", entity, err)
	}
	return id, nil
}

// SumPrices returns the arithmetic sum of the deals' prices, 0 when empty.
func SumPrices(deals []models.Deal) int {
	sum := 0
	for _, d := range deals {
		sum += d.Price
	}
	return sum
}

// Average returns the truncating integer mean of the deals' prices, defined
// as 0 for an empty slice.
func Average(deals []models.Deal) int {
	if len(deals) == 0 {
		return 0
	}
	return SumPrices(deals) / len(deals)
}
