package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/whachapay/backend/models"
	"github.com/whachapay/backend/services"
	"github.com/whachapay/backend/workflow"
)

// DealHandler serves deal entry against a chosen dealer, the confirmation
// view, and single-deal detail.
type DealHandler struct {
	Catalog  CatalogResolver
	Deals    DealStore
	Sessions *workflow.Manager
}

func NewDealHandler(catalog CatalogResolver, deals DealStore, sessions *workflow.Manager) *DealHandler {
	return &DealHandler{Catalog: catalog, Deals: deals, Sessions: sessions}
}

// DealEntry handles the price entry form for one place from the cached
// lookup. GET returns the form data (trims, defaults); POST validates and
// persists the deal. Either way the place id must be present in the session's
// cached places, which also records the dealer choice.
func (h *DealHandler) DealEntry(c *fiber.Ctx) error {
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

	place, err := state.ChooseDealer(placeID)
	if err != nil {
		return notFound(c)
	}

	trims, err := h.Catalog.TrimsForModelYear(c.Context(), state.Vehicle.ModelID, state.Vehicle.Year)
	if err != nil {
		return internalError(c, err)
	}

	if c.Method() == fiber.MethodGet {
		if err := h.Sessions.Save(sess, state); err != nil {
			return internalError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"vehicle": state.Vehicle,
				"dealer":  place,
				"trims":   trims,
				"form": fiber.Map{
					"date": time.Now().Format(dealerDateFmt),
				},
			},
		})
	}

	form, fields := parseEntryForm(c)
	if fields["trim"] == "" && !trimInChoices(form.TrimID, trims) {
		fields["trim"] = "Select a valid Trim."
	}
	if len(fields) > 0 {
		return validationFailed(c, fields)
	}

	deal, err := h.Deals.RecordDeal(c.Context(), services.RecordDealParams{
		Vehicle: services.VehicleIdentity{
			MakeYearID: state.Vehicle.MakeYearID,
			MakeID:     state.Vehicle.MakeID,
			CarModelID: state.Vehicle.ModelID,
		},
		Dealer:   *place,
		Email:    form.Email,
		ClientIP: clientIP(c),
		TrimID:   form.TrimID,
		Price:    form.Price,
		DealDate: form.DealDate,
		Comment:  form.Comment,
	})
	if err != nil {
		return internalError(c, err)
	}

	if err := state.MarkDealRecorded(deal.ID); err != nil {
		return notFound(c)
	}
	if err := h.Sessions.Save(sess, state); err != nil {
		return internalError(c, err)
	}

	logrus.WithFields(logrus.Fields{
		"deal_id":  deal.ID,
		"place_id": placeID,
	}).Info("Deal entry accepted")

	return c.Redirect("/deal_entered", fiber.StatusSeeOther)
}

// DealEntered is the post-submission confirmation view.
func (h *DealHandler) DealEntered(c *fiber.Ctx) error {
	state, _, err := h.Sessions.Load(c)
	if err != nil {
		return internalError(c, err)
	}
	if err := state.RequireDeal(); err != nil {
		return notFound(c)
	}

	deal, err := h.Deals.GetDeal(c.Context(), state.DealID)
	if err != nil {
		return internalError(c, err)
	}
	if deal == nil {
		return notFound(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"vehicle": state.Vehicle,
			"dealer":  state.Places.FindResult(state.DealerPlaceID),
			"deal":    deal,
		},
	})
}

// DealDetail shows one recorded deal by numeric id.
func (h *DealHandler) DealDetail(c *fiber.Ctx) error {
	dealID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || dealID <= 0 {
		return notFound(c)
	}

	state, _, err := h.Sessions.Load(c)
	if err != nil {
		return internalError(c, err)
	}
	if err := state.RequireVehicle(); err != nil {
		return notFound(c)
	}

	deal, err := h.Deals.GetDeal(c.Context(), dealID)
	if err != nil {
		return internalError(c, err)
	}
	if deal == nil {
		return notFound(c)
	}

	trimName, err := h.Catalog.TrimName(c.Context(), deal.TrimID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"vehicle":   state.Vehicle,
			"deal":      deal,
			"trim_name": trimName,
		},
	})
}

func trimInChoices(trimID int64, trims []models.Trim) bool {
	for _, t := range trims {
		if t.ID == trimID {
			return true
		}
	}
	return false
}
