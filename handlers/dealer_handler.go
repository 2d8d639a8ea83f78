package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/whachapay/backend/models"
	"github.com/whachapay/backend/services"
	"github.com/whachapay/backend/shared"
	"github.com/whachapay/backend/workflow"
)

// DealerHandler serves the dealer listings built from the session's cached
// places lookup: the selection list, the area price summary, and the
// per-dealer deal listing.
type DealerHandler struct {
	Catalog  CatalogResolver
	Deals    DealStore
	Sessions *workflow.Manager
	PageSize int
}

func NewDealerHandler(catalog CatalogResolver, deals DealStore, sessions *workflow.Manager, pageSize int) *DealerHandler {
	return &DealerHandler{Catalog: catalog, Deals: deals, Sessions: sessions, PageSize: pageSize}
}

// DealerSelect lists the cached places for the session vehicle, paginated.
func (h *DealerHandler) DealerSelect(c *fiber.Ctx) error {
	state, _, err := h.Sessions.Load(c)
	if err != nil {
		return internalError(c, err)
	}
	if err := state.RequireVehicle(); err != nil {
		return notFound(c)
	}

	page := shared.Paginate(state.Places.Results, shared.ParsePageNumber(c.Query("page")), h.PageSize)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"vehicle":      state.Vehicle,
			"location":     state.Location,
			"results":      page,
			"attributions": state.Places.Attributions,
		},
	})
}

// dealerAverage is one area-summary row: a dealer with recorded deals and
// the truncating mean of their prices.
type dealerAverage struct {
	Dealer  models.Dealer `json:"dealer"`
	Average int           `json:"average"`
}

// AreaSummary aggregates recorded deals across the cached places: one row
// per dealer that has deals, plus the average over every matching deal in
// the area. An optional trim filter narrows the deals; zero means all trims.
func (h *DealerHandler) AreaSummary(c *fiber.Ctx) error {
	state, sess, err := h.Sessions.Load(c)
	if err != nil {
		return internalError(c, err)
	}
	if err := state.RequireVehicle(); err != nil {
		return notFound(c)
	}

	trimFilter, err := h.resolveTrimFilter(c, state, c.Query("trim"))
	if err != nil {
		return internalError(c, err)
	}
	state.SetTrimFilter(trimFilter)

	vehicle, err := h.Deals.GetVehicle(c.Context(), services.VehicleIdentity{
		MakeYearID: state.Vehicle.MakeYearID,
		MakeID:     state.Vehicle.MakeID,
		CarModelID: state.Vehicle.ModelID,
	})
	if err != nil {
		return internalError(c, err)
	}

	dealerAverages := []dealerAverage{}
	dealCount, areaSum := 0, 0
	if vehicle != nil {
		for _, place := range state.Places.Results {
			dealer, err := h.Deals.GetDealer(c.Context(), place.PlaceID)
			if err != nil {
				return internalError(c, err)
			}
			if dealer == nil {
				continue
			}
			deals, err := h.Deals.DealsFor(c.Context(), vehicle.ID, dealer.ID, trimFilter)
			if err != nil {
				return internalError(c, err)
			}
			if len(deals) == 0 {
				continue
			}
			dealCount += len(deals)
			areaSum += services.SumPrices(deals)
			dealerAverages = append(dealerAverages, dealerAverage{
				Dealer:  *dealer,
				Average: services.Average(deals),
			})
		}
	}

	areaAverage := 0
	if dealCount > 0 {
		areaAverage = areaSum / dealCount
	}

	page := shared.Paginate(dealerAverages, shared.ParsePageNumber(c.Query("page")), h.PageSize)

	trims, err := h.trimChoices(c, state)
	if err != nil {
		return internalError(c, err)
	}

	if err := h.Sessions.Save(sess, state); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"vehicle":      state.Vehicle,
			"location":     state.Location,
			"area_average": areaAverage,
			"deal_count":   dealCount,
			"dealers":      page,
			"trim_filter":  trimFilter,
			"trims":        trims,
		},
	})
}

// DealerDeals lists the recorded deals for one stored dealer and the session
// vehicle. The trim filter comes from the query, falling back to the one
// remembered from the area summary.
func (h *DealerHandler) DealerDeals(c *fiber.Ctx) error {
	placeID := c.Params("place_id")
	if !placeIDPattern.MatchString(placeID) {
		return notFound(c)
	}

	state, sess, err := h.Sessions.Load(c)
	if err != nil {
		return internalError(c, err)
	}
	if err := state.RequireVehicle(); err != nil {
		return notFound(c)
	}

	dealer, err := h.Deals.GetDealer(c.Context(), placeID)
	if err != nil {
		return internalError(c, err)
	}
	if dealer == nil {
		return notFound(c)
	}

	vehicle, err := h.Deals.GetVehicle(c.Context(), services.VehicleIdentity{
		MakeYearID: state.Vehicle.MakeYearID,
		MakeID:     state.Vehicle.MakeID,
		CarModelID: state.Vehicle.ModelID,
	})
	if err != nil {
		return internalError(c, err)
	}
	if vehicle == nil {
		return notFound(c)
	}

	rawTrim, trimProvided := c.Queries()["trim"]
	var trimFilter *int64
	if trimProvided {
		trimFilter, err = h.resolveTrimFilter(c, state, rawTrim)
		if err != nil {
			return internalError(c, err)
		}
		state.SetTrimFilter(trimFilter)
	} else {
		trimFilter = state.TrimFilter
	}

	deals, err := h.Deals.DealsFor(c.Context(), vehicle.ID, dealer.ID, trimFilter)
	if err != nil {
		return internalError(c, err)
	}

	trims, err := h.trimChoices(c, state)
	if err != nil {
		return internalError(c, err)
	}

	if err := h.Sessions.Save(sess, state); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"vehicle":        state.Vehicle,
			"dealer":         dealer,
			"place":          state.Places.FindResult(placeID),
			"deals":          deals,
			"dealer_average": services.Average(deals),
			"trim_filter":    trimFilter,
			"trims":          trims,
		},
	})
}

// resolveTrimFilter parses the filter and drops values that are not valid
// trims for the session's model and year, so a stale or forged id filters
// nothing rather than erroring.
func (h *DealerHandler) resolveTrimFilter(c *fiber.Ctx, state *workflow.State, raw string) (*int64, error) {
	trimFilter := parseTrimFilter(raw)
	if trimFilter == nil {
		return nil, nil
	}

	trims, err := h.Catalog.TrimsForModelYear(c.Context(), state.Vehicle.ModelID, state.Vehicle.Year)
	if err != nil {
		return nil, err
	}
	for _, t := range trims {
		if t.ID == *trimFilter {
			return trimFilter, nil
		}
	}
	return nil, nil
}

func (h *DealerHandler) trimChoices(c *fiber.Ctx, state *workflow.State) ([]models.Trim, error) {
	return h.Catalog.TrimsForModelYear(c.Context(), state.Vehicle.ModelID, state.Vehicle.Year)
}
