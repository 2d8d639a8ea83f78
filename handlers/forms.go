package handlers

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Selection fields arrive as strings and are valid only when they parse as
// an integer strictly greater than zero. Zero is the "not yet selected"
// placeholder and is rejected here; the separate deals trim *filter* treats
// zero as "all trims" and is parsed by parseTrimFilter instead.

const (
	priceMin      = 100
	priceMax      = 1000000
	commentMax    = 2000
	emailMax      = 100
	locationMax   = 200
	dealerDateFmt = "2006-01-02"
)

// validatePositive parses value as a positive integer, returning a
// user-facing message when it is not one.
func validatePositive(value, name string) (int64, string) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Sprintf("Select a valid %s. %s is not one of the available choices.", name, value)
	}
	if v <= 0 {
		return 0, fmt.Sprintf("%s is required.", name)
	}
	return v, ""
}

// HomeForm is the vehicle+location submission from the home page.
type HomeForm struct {
	Year      int
	MakeID    int64
	ModelID   int64
	Location  string
	PlaceName string
	LatLng    string
}

// parseHomeForm reads and validates the home submission from the query
// string. The second return value maps field names to error messages and is
// empty on success.
func parseHomeForm(c *fiber.Ctx) (HomeForm, map[string]string) {
	form := HomeForm{
		Location:  strings.TrimSpace(c.Query("location")),
		PlaceName: strings.TrimSpace(c.Query("place_name")),
		LatLng:    strings.TrimSpace(c.Query("lat_lng")),
	}
	fields := map[string]string{}

	if year, msg := validatePositive(c.Query("make_year"), "Year"); msg != "" {
		fields["make_year"] = msg
	} else {
		form.Year = int(year)
	}
	if makeID, msg := validatePositive(c.Query("make"), "Make"); msg != "" {
		fields["make"] = msg
	} else {
		form.MakeID = makeID
	}
	if modelID, msg := validatePositive(c.Query("model"), "Model"); msg != "" {
		fields["model"] = msg
	} else {
		form.ModelID = modelID
	}

	if form.Location == "" {
		fields["location"] = "Location is required."
	} else if len(form.Location) > locationMax {
		fields["location"] = fmt.Sprintf("Location must be at most %d characters.", locationMax)
	}
	if form.PlaceName == "" {
		fields["place_name"] = "Place name is required."
	}
	if form.LatLng == "" {
		fields["lat_lng"] = "Location coordinates are required."
	}

	return form, fields
}

// EntryForm is the deal submission for a chosen dealer.
type EntryForm struct {
	TrimID   int64
	Price    int
	DealDate time.Time
	Comment  string
	Email    string
}

// parseEntryForm reads and validates the deal entry from the request body.
func parseEntryForm(c *fiber.Ctx) (EntryForm, map[string]string) {
	form := EntryForm{
		Comment: strings.TrimSpace(c.FormValue("comment")),
		Email:   strings.TrimSpace(c.FormValue("email")),
	}
	fields := map[string]string{}

	if trimID, msg := validatePositive(c.FormValue("trim"), "Trim"); msg != "" {
		fields["trim"] = msg
	} else {
		form.TrimID = trimID
	}

	price, err := strconv.Atoi(strings.TrimSpace(c.FormValue("price")))
	switch {
	case err != nil:
		fields["price"] = "Enter a whole number."
	case price < priceMin:
		fields["price"] = fmt.Sprintf("Ensure this value is greater than or equal to %d.", priceMin)
	case price > priceMax:
		fields["price"] = fmt.Sprintf("Ensure this value is less than or equal to %d.", priceMax)
	default:
		form.Price = price
	}

	date, err := time.Parse(dealerDateFmt, strings.TrimSpace(c.FormValue("date")))
	if err != nil {
		fields["date"] = "Enter a valid date."
	} else {
		form.DealDate = date
	}

	if form.Email == "" {
		fields["email"] = "Email is required."
	} else if len(form.Email) > emailMax {
		fields["email"] = fmt.Sprintf("Email must be at most %d characters.", emailMax)
	} else if _, err := mail.ParseAddress(form.Email); err != nil {
		fields["email"] = "Enter a valid email address."
	}

	if len(form.Comment) > commentMax {
		fields["comment"] = fmt.Sprintf("Comment must be at most %d characters.", commentMax)
	}

	return form, fields
}

// parseTrimFilter interprets the deals-listing trim filter. Zero (the "All
// Trims" choice), a missing value, or garbage all mean "no filter", which is
// distinct from the strictly-positive trim required on deal entry.
func parseTrimFilter(raw string) *int64 {
	trimID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || trimID <= 0 {
		return nil
	}
	return &trimID
}
