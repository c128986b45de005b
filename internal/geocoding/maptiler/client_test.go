package maptiler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
	"github.com/cellway/cellway/internal/geocoding"
)

const forwardResponse = `{
  "type": "FeatureCollection",
  "features": [
    {
      "id": "poi.1234",
      "text": "South Station",
      "place_name": "South Station, Boston, Massachusetts, United States",
      "place_type": ["poi"],
      "center": [-71.055242, 42.352271],
      "relevance": 0.96
    },
    {
      "id": "address.5678",
      "text": "South Street",
      "place_name": "South Street, Boston, Massachusetts, United States",
      "place_type": ["address"],
      "center": [-71.0612, 42.3555],
      "relevance": 0.71
    }
  ]
}`

func TestClient_Forward_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/geocoding/south station.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("key") != "mock123" {
			t.Errorf("expected key mock123, got %s", q.Get("key"))
		}
		if q.Get("autocomplete") != "true" {
			t.Errorf("expected autocomplete true, got %s", q.Get("autocomplete"))
		}
		if q.Get("limit") != "5" {
			t.Errorf("expected limit 5, got %s", q.Get("limit"))
		}
		if q.Get("proximity") != "-71.058900,42.360100" {
			t.Errorf("unexpected proximity param: %s", q.Get("proximity"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forwardResponse))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	places, err := client.Forward(context.Background(), geocoding.ForwardRequest{
		Query:        "south station",
		Limit:        5,
		Autocomplete: true,
		Proximity:    &geo.Point{Lat: 42.3601, Lon: -71.0589},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}

	first := places[0]
	if first.ID != "poi.1234" {
		t.Errorf("unexpected id: %s", first.ID)
	}
	if first.Name != "South Station" {
		t.Errorf("unexpected name: %s", first.Name)
	}
	if first.PlaceName != "South Station, Boston, Massachusetts, United States" {
		t.Errorf("unexpected place name: %s", first.PlaceName)
	}
	// GeoJSON centers are [lon, lat]; the domain model is lat/lon.
	if first.Center.Lat != 42.352271 || first.Center.Lon != -71.055242 {
		t.Errorf("unexpected center: %+v", first.Center)
	}
	if len(first.Kinds) != 1 || first.Kinds[0] != "poi" {
		t.Errorf("unexpected kinds: %v", first.Kinds)
	}
	if first.Relevance != 0.96 {
		t.Errorf("unexpected relevance: %f", first.Relevance)
	}
}

func TestClient_Forward_NoProximity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("proximity") {
			t.Errorf("expected no proximity param, got %s", r.URL.Query().Get("proximity"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	places, err := client.Forward(context.Background(), geocoding.ForwardRequest{Query: "nowhere"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("expected no places, got %d", len(places))
	}
}

func TestClient_Reverse_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reverse paths are {lon},{lat}.
		if r.URL.Path != "/geocoding/-71.055242,42.352271.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(forwardResponse))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	places, err := client.Reverse(context.Background(), geo.Point{Lat: 42.352271, Lon: -71.055242})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	if places[0].Name != "South Station" {
		t.Errorf("unexpected name: %s", places[0].Name)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "unauthorized", statusCode: http.StatusUnauthorized, wantErr: geocoding.ErrInvalidAPIKey},
		{name: "forbidden", statusCode: http.StatusForbidden, wantErr: geocoding.ErrInvalidAPIKey},
		{name: "server error", statusCode: http.StatusInternalServerError, wantErr: geocoding.ErrProviderUnavailable},
		{name: "bad gateway", statusCode: http.StatusBadGateway, wantErr: geocoding.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := NewClient(ClientConfig{
				APIKey:     "mock123",
				BaseURL:    server.URL,
				HTTPClient: server.Client(),
				Logger:     zerolog.Nop(),
			})

			_, err := client.Forward(context.Background(), geocoding.ForwardRequest{Query: "boston"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		HTTPClient: &failingClient{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Forward(context.Background(), geocoding.ForwardRequest{Query: "boston"})
	if !errors.Is(err, geocoding.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Cancelled(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		HTTPClient: &failingClient{},
		Logger:     zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Reverse(ctx, geo.Point{Lat: 42.36, Lon: -71.06})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClient_SkipsFeaturesWithoutCenter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"features":[{"id":"a","text":"No Center"},{"id":"b","text":"OK","center":[-71.06,42.36]}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})

	places, err := client.Forward(context.Background(), geocoding.ForwardRequest{Query: "boston"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || places[0].ID != "b" {
		t.Fatalf("expected only the feature with a center, got %+v", places)
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test", Logger: zerolog.Nop()})
	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}
}

// failingClient simulates network errors.
type failingClient struct{}

func (f *failingClient) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("network error")
}
