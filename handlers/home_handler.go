package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/whachapay/backend/models"
	"github.com/whachapay/backend/workflow"
)

// HomeHandler serves the vehicle selection entry point and the cascading
// option lookups behind it.
type HomeHandler struct {
	Catalog  CatalogResolver
	Places   PlacesLookup
	Sessions *workflow.Manager
}

func NewHomeHandler(catalog CatalogResolver, places PlacesLookup, sessions *workflow.Manager) *HomeHandler {
	return &HomeHandler{Catalog: catalog, Places: places, Sessions: sessions}
}

// Home returns the year choices, or, when the query carries an "enter" or
// "find" key, validates the vehicle+location submission, performs the one
// places lookup for this selection, and redirects to dealer selection
// (enter) or the area summary (find).
func (h *HomeHandler) Home(c *fiber.Ctx) error {
	_, submitEnter := c.Queries()["enter"]
	_, submitFind := c.Queries()["find"]
	if !submitEnter && !submitFind {
		years, err := h.Catalog.Years(c.Context())
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    fiber.Map{"years": years},
		})
	}

	form, fields := parseHomeForm(c)
	if len(fields) > 0 {
		return validationFailed(c, fields)
	}

	// The make/model choices are loaded client-side, so membership in the
	// catalog is checked here rather than against a static choice list.
	makeName, err := h.Catalog.MakeName(c.Context(), form.MakeID)
	if err != nil {
		return internalError(c, err)
	}
	if makeName == "" {
		fields["make"] = "Select a valid Make."
	}
	modelName, err := h.Catalog.ModelName(c.Context(), form.ModelID)
	if err != nil {
		return internalError(c, err)
	}
	if modelName == "" {
		fields["model"] = "Select a valid Model."
	}
	makeYear, err := h.Catalog.GetMakeYear(c.Context(), form.MakeID, form.Year)
	if err != nil {
		return internalError(c, err)
	}
	if makeYear == nil && fields["make"] == "" {
		fields["make_year"] = "Select a valid Year for this Make."
	}
	if len(fields) > 0 {
		return validationFailed(c, fields)
	}

	places := h.Places.Lookup(c.Context(), form.LatLng)

	state, sess, err := h.Sessions.Load(c)
	if err != nil {
		return internalError(c, err)
	}
	state.BeginSelection(workflow.VehicleSelection{
		Year:       form.Year,
		MakeID:     form.MakeID,
		MakeName:   makeName,
		ModelID:    form.ModelID,
		ModelName:  modelName,
		MakeYearID: makeYear.ID,
	}, form.PlaceName, places)
	if err := h.Sessions.Save(sess, state); err != nil {
		return internalError(c, err)
	}

	logrus.WithFields(logrus.Fields{
		"year":   form.Year,
		"make":   makeName,
		"model":  modelName,
		"places": len(places.Results),
	}).Info("Vehicle selection recorded")

	if submitEnter {
		return c.Redirect("/dealer_select", fiber.StatusSeeOther)
	}
	return c.Redirect("/area_summary", fiber.StatusSeeOther)
}

// UpdateSelections is the AJAX endpoint feeding the cascading make/model
// selects. It mirrors the page flow: picking a year refreshes the makes,
// picking a make refreshes the models. Unfilled or non-numeric parents
// yield empty option lists.
func (h *HomeHandler) UpdateSelections(c *fiber.Ctx) error {
	if !c.XHR() {
		return notFound(c)
	}

	selected := c.Query("selected")

	makeOptions := []models.Make{}
	if selected == "make_year" {
		if year, msg := validatePositive(c.Query("make_year"), "Year"); msg == "" {
			options, err := h.Catalog.MakesForYear(c.Context(), int(year))
			if err != nil {
				return internalError(c, err)
			}
			makeOptions = options
		}
	}

	modelOptions := []models.CarModel{}
	if selected == "make" {
		year, yearMsg := validatePositive(c.Query("make_year"), "Year")
		makeID, makeMsg := validatePositive(c.Query("make"), "Make")
		if yearMsg == "" && makeMsg == "" {
			options, err := h.Catalog.ModelsForMakeYear(c.Context(), makeID, int(year))
			if err != nil {
				return internalError(c, err)
			}
			modelOptions = options
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"make":  makeOptions,
			"model": modelOptions,
		},
	})
}
