package models

// Catalog entities are fixture-seeded and read-only at runtime.

type Make struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MakeYear struct {
	ID     int64 `json:"id"`
	MakeID int64 `json:"make_id"`
	Year   int   `json:"year"`
}

type CarModel struct {
	ID     int64  `json:"id"`
	MakeID int64  `json:"make_id"`
	Name   string `json:"name"`
}

type CarModelYear struct {
	ID         int64 `json:"id"`
	CarModelID int64 `json:"car_model_id"`
	Year       int   `json:"year"`
}

type Trim struct {
	ID         int64  `json:"id"`
	CarModelID int64  `json:"car_model_id"`
	Name       string `json:"name"`
}

type TrimYear struct {
	ID     int64 `json:"id"`
	TrimID int64 `json:"trim_id"`
	Year   int   `json:"year"`
}
