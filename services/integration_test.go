package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/whachapay/backend/models"
)

// setupTestDB opens the test database and applies the schema. Tests are
// skipped when TEST_DATABASE_URL is not set or unreachable.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration tests - TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Skipf("Skipping integration tests - database not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Skipf("Skipping integration tests - database ping failed: %v", err)
	}

	schema, err := os.ReadFile(filepath.Join("..", "database", "schema.sql"))
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	for _, stmt := range strings.Split(string(schema), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to apply schema statement: %v", err)
		}
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// seedSelection inserts one make/model/trim chain for the given year and
// returns the identity needed to record deals against it.
func seedSelection(t *testing.T, db *sql.DB, year int) (VehicleIdentity, int64) {
	t.Helper()

	suffix := uuid.NewString()[:8]
	var makeID, makeYearID, modelID, trimID int64

	if err := db.QueryRow(`INSERT INTO makes (name) VALUES ($1) RETURNING id`, "Make-"+suffix).Scan(&makeID); err != nil {
		t.Fatalf("failed to insert make: %v", err)
	}
	if err := db.QueryRow(`INSERT INTO make_years (make_id, year) VALUES ($1, $2) RETURNING id`, makeID, year).Scan(&makeYearID); err != nil {
		t.Fatalf("failed to insert make year: %v", err)
	}
	if err := db.QueryRow(`INSERT INTO car_models (make_id, name) VALUES ($1, $2) RETURNING id`, makeID, "Model-"+suffix).Scan(&modelID); err != nil {
		t.Fatalf("failed to insert model: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO car_model_years (car_model_id, year) VALUES ($1, $2)`, modelID, year); err != nil {
		t.Fatalf("failed to insert model year: %v", err)
	}
	if err := db.QueryRow(`INSERT INTO trims (car_model_id, name) VALUES ($1, $2) RETURNING id`, modelID, "Trim-"+suffix).Scan(&trimID); err != nil {
		t.Fatalf("failed to insert trim: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO trim_years (trim_id, year) VALUES ($1, $2)`, trimID, year); err != nil {
		t.Fatalf("failed to insert trim year: %v", err)
	}

	return VehicleIdentity{MakeYearID: makeYearID, MakeID: makeID, CarModelID: modelID}, trimID
}

func randomPlaceID() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")[:40]
}

func TestRecordDealIdempotentLookupOrCreate(t *testing.T) {
	db := setupTestDB(t)
	service := NewDealService(db)
	ctx := context.Background()

	identity, trimID := seedSelection(t, db, 2012)
	email := fmt.Sprintf("buyer-%s@example.com", uuid.NewString()[:8])
	clientIP := fmt.Sprintf("10.1.%d.%d", time.Now().Unix()%250, time.Now().UnixNano()%250)
	place := models.PlaceResult{
		PlaceID:  randomPlaceID(),
		Name:     "Test Dealer",
		Location: "37.77,-122.41",
		Address:  "1 Test Way",
	}

	base := RecordDealParams{
		Vehicle:  identity,
		Dealer:   place,
		Email:    email,
		ClientIP: clientIP,
		TrimID:   trimID,
		Price:    15000,
		DealDate: time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := service.RecordDeal(ctx, base)
	if err != nil {
		t.Fatalf("first RecordDeal failed: %v", err)
	}

	second := base
	second.Price = 15500
	secondDeal, err := service.RecordDeal(ctx, second)
	if err != nil {
		t.Fatalf("second RecordDeal failed: %v", err)
	}

	if first.ID == secondDeal.ID {
		t.Fatal("deals should be distinct rows")
	}
	if first.UserIPID != secondDeal.UserIPID ||
		first.VehicleID != secondDeal.VehicleID ||
		first.DealerID != secondDeal.DealerID {
		t.Error("both deals should reuse the same derived rows")
	}

	counts := map[string]string{
		"users":        `SELECT COUNT(*) FROM users WHERE email = $1`,
		"ip_addresses": `SELECT COUNT(*) FROM ip_addresses WHERE ip = $1`,
	}
	for table, query := range counts {
		arg := email
		if table == "ip_addresses" {
			arg = clientIP
		}
		var n int
		if err := db.QueryRow(query, arg).Scan(&n); err != nil {
			t.Fatalf("failed to count %s: %v", table, err)
		}
		if n != 1 {
			t.Errorf("expected exactly one %s row, got %d", table, n)
		}
	}

	var dealCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM deals WHERE vehicle_id = $1 AND dealer_id = $2`,
		first.VehicleID, first.DealerID).Scan(&dealCount); err != nil {
		t.Fatalf("failed to count deals: %v", err)
	}
	if dealCount != 2 {
		t.Errorf("expected two deal rows, got %d", dealCount)
	}
}

func TestDealsForTrimFilter(t *testing.T) {
	db := setupTestDB(t)
	service := NewDealService(db)
	ctx := context.Background()

	identity, trimID := seedSelection(t, db, 2011)

	// A second trim on the same model to filter against.
	var otherTrimID int64
	if err := db.QueryRow(`INSERT INTO trims (car_model_id, name) VALUES ($1, $2) RETURNING id`,
		identity.CarModelID, "Other-"+uuid.NewString()[:8]).Scan(&otherTrimID); err != nil {
		t.Fatalf("failed to insert second trim: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO trim_years (trim_id, year) VALUES ($1, $2)`, otherTrimID, 2011); err != nil {
		t.Fatalf("failed to insert second trim year: %v", err)
	}

	place := models.PlaceResult{PlaceID: randomPlaceID(), Name: "Trim Dealer", Location: "0,0", Address: "2 Test Way"}
	email := fmt.Sprintf("trim-%s@example.com", uuid.NewString()[:8])

	record := func(trim int64, price int) {
		_, err := service.RecordDeal(ctx, RecordDealParams{
			Vehicle:  identity,
			Dealer:   place,
			Email:    email,
			ClientIP: "10.9.9.9",
			TrimID:   trim,
			Price:    price,
			DealDate: time.Date(2011, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("RecordDeal failed: %v", err)
		}
	}
	record(trimID, 20000)
	record(trimID, 21000)
	record(otherTrimID, 30000)

	vehicle, err := service.GetVehicle(ctx, identity)
	if err != nil || vehicle == nil {
		t.Fatalf("expected vehicle row, got %v (err %v)", vehicle, err)
	}
	dealer, err := service.GetDealer(ctx, place.PlaceID)
	if err != nil || dealer == nil {
		t.Fatalf("expected dealer row, got %v (err %v)", dealer, err)
	}

	all, err := service.DealsFor(ctx, vehicle.ID, dealer.ID, nil)
	if err != nil {
		t.Fatalf("DealsFor failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 deals unfiltered, got %d", len(all))
	}

	filtered, err := service.DealsFor(ctx, vehicle.ID, dealer.ID, &trimID)
	if err != nil {
		t.Fatalf("filtered DealsFor failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 deals for trim, got %d", len(filtered))
	}
	for _, d := range filtered {
		if d.TrimID != trimID {
			t.Errorf("filtered deal has trim %d, expected %d", d.TrimID, trimID)
		}
	}
	if Average(filtered) != 20500 {
		t.Errorf("expected dealer average 20500, got %d", Average(filtered))
	}
}

func TestCatalogResolverCascade(t *testing.T) {
	db := setupTestDB(t)
	catalog := NewCatalogService(db)
	ctx := context.Background()

	identity, trimID := seedSelection(t, db, 2525)

	makes, err := catalog.MakesForYear(ctx, 2525)
	if err != nil {
		t.Fatalf("MakesForYear failed: %v", err)
	}
	if !containsMakeID(makes, identity.MakeID) {
		t.Error("seeded make missing from MakesForYear")
	}

	carModels, err := catalog.ModelsForMakeYear(ctx, identity.MakeID, 2525)
	if err != nil {
		t.Fatalf("ModelsForMakeYear failed: %v", err)
	}
	if len(carModels) != 1 || carModels[0].ID != identity.CarModelID {
		t.Errorf("expected exactly the seeded model, got %v", carModels)
	}
	for _, cm := range carModels {
		if cm.MakeID != identity.MakeID {
			t.Errorf("model %d does not belong to make %d", cm.ID, identity.MakeID)
		}
	}

	trims, err := catalog.TrimsForModelYear(ctx, identity.CarModelID, 2525)
	if err != nil {
		t.Fatalf("TrimsForModelYear failed: %v", err)
	}
	if len(trims) != 1 || trims[0].ID != trimID {
		t.Errorf("expected exactly the seeded trim, got %v", trims)
	}

	// A year with no make_years rows resolves to empty, not an error.
	empty, err := catalog.MakesForYear(ctx, 1801)
	if err != nil {
		t.Fatalf("MakesForYear for unused year failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no makes for unused year, got %v", empty)
	}

	// Unknown ids resolve to empty option lists.
	none, err := catalog.ModelsForMakeYear(ctx, -1, 2525)
	if err != nil {
		t.Fatalf("ModelsForMakeYear for unknown make failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no models for unknown make, got %v", none)
	}
}

func containsMakeID(makes []models.Make, id int64) bool {
	for _, m := range makes {
		if m.ID == id {
			return true
		}
	}
	return false
}
