package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/whachapay/backend/models"
	"github.com/whachapay/backend/shared"
)

// PlacesService is the gateway to the upstream places API. It makes one
// bounded GET per lookup and degrades every failure (transport, parse,
// non-OK upstream status) to the empty result, so the workflow treats a
// failed lookup and a lookup with zero hits identically.
type PlacesService struct {
	baseURL     string
	apiKey      string
	radius      int
	httpClient  *http.Client
	rateLimiter *shared.RequestRateLimiter
}

func NewPlacesService(baseURL, apiKey string, radius int, timeout time.Duration) *PlacesService {
	return &PlacesService{
		baseURL: baseURL,
		apiKey:  apiKey,
		radius:  radius,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		rateLimiter: shared.NewRequestRateLimiter(200 * time.Millisecond),
	}
}

// placesResponse mirrors the fields of the upstream nearby-search payload
// that matter here.
type placesResponse struct {
	Status           string   `json:"status"`
	HTMLAttributions []string `json:"html_attributions"`
	Results          []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Lookup searches for car dealers near the given "lat,lng" point. The
// returned value is never nil; callers cache it in the session as-is.
func (s *PlacesService) Lookup(ctx context.Context, latLng string) *models.Places {
	logger := logrus.WithFields(logrus.Fields{
		"component": "PlacesService",
		"method":    "Lookup",
		"location":  latLng,
	})

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("location", latLng)
	params.Set("radius", strconv.Itoa(s.radius))
	params.Set("keyword", "car dealer")
	params.Set("type", "car_dealer")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to create places request")
		return &models.Places{}
	}
	request.Header.Set("Accept", "application/json")

	s.rateLimiter.EnforceRateLimit()

	response, err := s.httpClient.Do(request)
	if err != nil {
		logger.WithError(err).Warn("Places lookup failed, returning empty result")
		return &models.Places{}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		logger.WithField("status_code", response.StatusCode).Warn("Places lookup returned non-OK status")
		return &models.Places{}
	}

	var payload placesResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		logger.WithError(err).Warn("Failed to parse places response")
		return &models.Places{}
	}

	if payload.Status != "OK" {
		// ZERO_RESULTS and error statuses both collapse to empty.
		logger.WithField("upstream_status", payload.Status).Debug("Places lookup returned no usable results")
		return &models.Places{}
	}

	places := &models.Places{
		Results:      make([]models.PlaceResult, 0, len(payload.Results)),
		Attributions: flattenAttributions(payload.HTMLAttributions),
	}
	for _, r := range payload.Results {
		places.Results = append(places.Results, models.PlaceResult{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Location: fmt.Sprintf("%v,%v", r.Geometry.Location.Lat, r.Geometry.Location.Lng),
			Address:  r.Vicinity,
		})
	}

	logger.WithField("result_count", len(places.Results)).Info("Places lookup complete")
	return places
}

// flattenAttributions reduces the upstream html_attributions snippets to
// plain text and the first linked source, which is all the listing pages
// render.
func flattenAttributions(snippets []string) []models.Attribution {
	if len(snippets) == 0 {
		return nil
	}

	attributions := make([]models.Attribution, 0, len(snippets))
	for _, snippet := range snippets {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
		if err != nil {
			attributions = append(attributions, models.Attribution{Text: snippet})
			continue
		}

		attribution := models.Attribution{Text: strings.TrimSpace(doc.Text())}
		if href, ok := doc.Find("a").First().Attr("href"); ok {
			attribution.Href = href
		}
		if attribution.Text == "" {
			attribution.Text = snippet
		}
		attributions = append(attributions, attribution)
	}
	return attributions
}
