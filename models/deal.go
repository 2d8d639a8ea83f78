package models

import "time"

// Vehicle rows are created lazily the first time a deal is entered for a
// (make year, make, model) combination, to keep the fixtures small.
type Vehicle struct {
	ID         int64 `json:"id"`
	MakeYearID int64 `json:"make_year_id"`
	MakeID     int64 `json:"make_id"`
	CarModelID int64 `json:"car_model_id"`
}

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type IPAddress struct {
	ID int64  `json:"id"`
	IP string `json:"ip"`
}

// UserIP records that an email has submitted from an address. Created once
// per unique pair and reused afterward.
type UserIP struct {
	ID          int64 `json:"id"`
	UserID      int64 `json:"user_id"`
	IPAddressID int64 `json:"ip_address_id"`
}

// Dealer identity follows the external place id. A physical location whose
// place id changes upstream becomes a new Dealer row.
type Dealer struct {
	ID       int64  `json:"id"`
	PlaceID  string `json:"place_id"`
	Location string `json:"location"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// Deal rows are append-only; the application never updates or deletes them.
type Deal struct {
	ID        int64     `json:"id"`
	UserIPID  int64     `json:"user_ip_id"`
	VehicleID int64     `json:"vehicle_id"`
	TrimID    int64     `json:"trim_id"`
	DealerID  int64     `json:"dealer_id"`
	Price     int       `json:"price"`
	DealDate  time.Time `json:"deal_date"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
