package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/whachapay/backend/models"
	"github.com/whachapay/backend/services"
)

// The handler structs depend on these interfaces rather than the concrete
// services so tests can substitute fakes without a database or network.

type CatalogResolver interface {
	Years(ctx context.Context) ([]int, error)
	MakesForYear(ctx context.Context, year int) ([]models.Make, error)
	ModelsForMakeYear(ctx context.Context, makeID int64, year int) ([]models.CarModel, error)
	TrimsForModelYear(ctx context.Context, carModelID int64, year int) ([]models.Trim, error)
	MakeName(ctx context.Context, makeID int64) (string, error)
	ModelName(ctx context.Context, carModelID int64) (string, error)
	TrimName(ctx context.Context, trimID int64) (string, error)
	GetMakeYear(ctx context.Context, makeID int64, year int) (*models.MakeYear, error)
}

type DealStore interface {
	RecordDeal(ctx context.Context, params services.RecordDealParams) (*models.Deal, error)
	DealsFor(ctx context.Context, vehicleID, dealerID int64, trimID *int64) ([]models.Deal, error)
	GetVehicle(ctx context.Context, identity services.VehicleIdentity) (*models.Vehicle, error)
	GetDealer(ctx context.Context, placeID string) (*models.Dealer, error)
	GetDeal(ctx context.Context, dealID int64) (*models.Deal, error)
}

type PlacesLookup interface {
	Lookup(ctx context.Context, latLng string) *models.Places
}

// placeIDPattern matches the 40-character hex place identifiers used in
// routes.
var placeIDPattern = regexp.MustCompile(`^[a-f0-9]{40}$`)

// clientIP prefers the first forwarded-for entry over the direct connection
// address.
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return c.IP()
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   "not found",
	})
}

func validationFailed(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "validation failed",
		"fields":  fields,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
