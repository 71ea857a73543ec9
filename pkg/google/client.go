// Package google is a client for the Google Places API (New) text
// search endpoint.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/resilience"
)

const (
	defaultBaseURL = "https://places.googleapis.com/v1"

	// MaxPageSize is the per-page result cap enforced by the API.
	MaxPageSize = 20

	// BusinessStatusClosedPermanently marks places that no longer operate.
	BusinessStatusClosedPermanently = "CLOSED_PERMANENTLY"
)

// searchFieldMask covers identity, classification, address, geolocation,
// contact, ratings, pricing, hours, and editorial summaries. Requested on
// every search so leads are populated in a single call.
var searchFieldMask = strings.Join([]string{
	"places.id",
	"places.displayName",
	"places.businessStatus",
	"places.primaryType",
	"places.types",
	"places.formattedAddress",
	"places.addressComponents",
	"places.location",
	"places.nationalPhoneNumber",
	"places.internationalPhoneNumber",
	"places.websiteUri",
	"places.googleMapsUri",
	"places.rating",
	"places.userRatingCount",
	"places.priceLevel",
	"places.regularOpeningHours",
	"places.editorialSummary",
	"places.reviewSummary",
	"nextPageToken",
}, ",")

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
}

// TextSearchRequest is the request body for Places Text Search.
type TextSearchRequest struct {
	TextQuery      string `json:"textQuery"`
	IncludedType   string `json:"includedType,omitempty"`
	PageToken      string `json:"pageToken,omitempty"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

// TextSearchResponse is the response from Places Text Search.
type TextSearchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

// Place represents a place returned by the API.
type Place struct {
	ID                       string            `json:"id"`
	DisplayName              DisplayName       `json:"displayName"`
	BusinessStatus           string            `json:"businessStatus"`
	PrimaryType              string            `json:"primaryType"`
	Types                    []string          `json:"types"`
	FormattedAddress         string            `json:"formattedAddress"`
	AddressComponents        []AddressComp     `json:"addressComponents"`
	Location                 *LatLng           `json:"location"`
	NationalPhoneNumber      string            `json:"nationalPhoneNumber"`
	InternationalPhoneNumber string            `json:"internationalPhoneNumber"`
	WebsiteURI               string            `json:"websiteUri"`
	GoogleMapsURI            string            `json:"googleMapsUri"`
	Rating                   float64           `json:"rating"`
	UserRatingCount          int               `json:"userRatingCount"`
	PriceLevel               string            `json:"priceLevel"`
	RegularOpeningHours      *OpeningHours     `json:"regularOpeningHours"`
	EditorialSummary         *LocalizedText    `json:"editorialSummary"`
	ReviewSummary            *ReviewSummary    `json:"reviewSummary"`
}

// IsClosedPermanently reports whether the place is marked as no longer
// operating.
func (p *Place) IsClosedPermanently() bool {
	return p.BusinessStatus == BusinessStatusClosedPermanently
}

// AddressComponent returns the long text of the first address component
// carrying the given type, or "".
func (p *Place) AddressComponent(typ string) string {
	for _, c := range p.AddressComponents {
		for _, t := range c.Types {
			if t == typ {
				return c.LongText
			}
		}
	}
	return ""
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text string `json:"text"`
}

// AddressComp is one typed component of a formatted address.
type AddressComp struct {
	LongText  string   `json:"longText"`
	ShortText string   `json:"shortText"`
	Types     []string `json:"types"`
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OpeningHours holds the weekly schedule rendered as text.
type OpeningHours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

// LocalizedText is a localized text blob such as the editorial summary.
type LocalizedText struct {
	Text string `json:"text"`
}

// ReviewSummary is the AI-generated review digest for a place.
type ReviewSummary struct {
	Text LocalizedText `json:"text"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, searchReq TextSearchRequest) (*TextSearchResponse, error) {
	if searchReq.MaxResultCount <= 0 || searchReq.MaxResultCount > MaxPageSize {
		searchReq.MaxResultCount = MaxPageSize
	}

	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("google: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err)
		}
		return nil, err
	}

	var result TextSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}

	return &result, nil
}
