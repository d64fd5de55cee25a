package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotours/tour-booking-api/internal/apperr"
)

func TestAliasTopTours(t *testing.T) {
	var seen map[string][]string
	next := func(c echo.Context) error {
		seen = c.QueryParams()
		return c.NoContent(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours/top-5-cheap?limit=50&sort=price", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	require.NoError(t, AliasTopTours(next)(c))

	// The alias replaces whatever the client sent.
	assert.Equal(t, []string{"5"}, seen["limit"])
	assert.Equal(t, []string{"-ratingsAverage,price"}, seen["sort"])
	assert.Equal(t, []string{"name,price,ratingsAverage,summary,difficulty"}, seen["fields"])
}

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "plain pair", raw: "34.1,-118.1", lat: 34.1, lng: -118.1},
		{name: "spaces tolerated", raw: " 34.1 , -118.1 ", lat: 34.1, lng: -118.1},
		{name: "missing comma", raw: "34.1", wantErr: true},
		{name: "non-numeric", raw: "north,west", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, err := parseLatLng(tt.raw)
			if tt.wantErr {
				ae, ok := apperr.As(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusBadRequest, ae.StatusCode)
				assert.Equal(t, "Please provide latitude and longitude in the format lat,lng", ae.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, lat)
			assert.Equal(t, tt.lng, lng)
		})
	}
}
