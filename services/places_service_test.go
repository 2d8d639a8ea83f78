package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const placesPayload = `{
  "status": "OK",
  "html_attributions": ["Listings by <a href=\"https://example.com/partners\">Example Partners</a>"],
  "results": [
    {
      "place_id": "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0",
      "name": "Bayview Motors",
      "vicinity": "500 Harbor Blvd, Belmont",
      "geometry": {"location": {"lat": 37.52, "lng": -122.27}}
    },
    {
      "place_id": "ffffffffffffffffffffffffffffffffffffffff",
      "name": "Peninsula Auto",
      "vicinity": "88 El Camino Real, San Mateo",
      "geometry": {"location": {"lat": 37.56, "lng": -122.32}}
    }
  ]
}`

func newPlacesService(serverURL string) *PlacesService {
	return NewPlacesService(serverURL, "test-key", 50000, 2*time.Second)
}

func TestLookupParsesResults(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(placesPayload))
	}))
	defer server.Close()

	places := newPlacesService(server.URL).Lookup(context.Background(), "37.52,-122.27")

	if len(places.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(places.Results))
	}
	first := places.Results[0]
	if first.PlaceID != "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0" {
		t.Errorf("unexpected place id %q", first.PlaceID)
	}
	if first.Location != "37.52,-122.27" {
		t.Errorf("expected collapsed lat,lng location, got %q", first.Location)
	}
	if first.Address != "500 Harbor Blvd, Belmont" {
		t.Errorf("unexpected address %q", first.Address)
	}

	if len(places.Attributions) != 1 {
		t.Fatalf("expected 1 attribution, got %d", len(places.Attributions))
	}
	if places.Attributions[0].Text != "Listings by Example Partners" {
		t.Errorf("unexpected attribution text %q", places.Attributions[0].Text)
	}
	if places.Attributions[0].Href != "https://example.com/partners" {
		t.Errorf("unexpected attribution href %q", places.Attributions[0].Href)
	}

	if gotQuery["location"][0] != "37.52,-122.27" {
		t.Errorf("location param not forwarded: %v", gotQuery)
	}
	if gotQuery["radius"][0] != "50000" {
		t.Errorf("radius param not forwarded: %v", gotQuery)
	}
}

func TestLookupDegradesToEmpty(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"upstream error status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "OK", "results": [`))
		},
		"non-OK payload status": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "REQUEST_DENIED", "results": []}`))
		},
		"zero results": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			places := newPlacesService(server.URL).Lookup(context.Background(), "0,0")
			if places == nil {
				t.Fatal("lookup must never return nil")
			}
			if len(places.Results) != 0 {
				t.Errorf("expected empty results, got %v", places.Results)
			}
		})
	}
}

func TestLookupTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	places := newPlacesService(server.URL).Lookup(context.Background(), "0,0")
	if places == nil || len(places.Results) != 0 {
		t.Errorf("transport failure should yield the empty result, got %v", places)
	}
}

func TestFindResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(placesPayload))
	}))
	defer server.Close()

	places := newPlacesService(server.URL).Lookup(context.Background(), "0,0")

	if places.FindResult("ffffffffffffffffffffffffffffffffffffffff") == nil {
		t.Error("expected to find cached place by id")
	}
	if places.FindResult("0000000000000000000000000000000000000000") != nil {
		t.Error("unknown place id should return nil")
	}
}
