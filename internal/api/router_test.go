package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"routeline/internal/directions"
	"routeline/internal/geocode"
	"routeline/internal/model"
	"routeline/internal/polyline"
	"routeline/internal/service/route"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const referenceEncoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

type fakePlanner struct {
	routes  map[string]*model.Route
	planErr error
}

func (f *fakePlanner) Plan(ctx context.Context, origin, destination string) (*model.Route, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	points, err := polyline.Decode(referenceEncoded)
	if err != nil {
		return nil, err
	}
	r := &model.Route{
		ID:                 "r1",
		OriginAddress:      origin,
		DestinationAddress: destination,
		Polyline:           referenceEncoded,
		Precision:          polyline.DefaultPrecision,
		Points:             points,
	}
	f.routes[r.ID] = r
	return r, nil
}

func (f *fakePlanner) Get(id string) (*model.Route, error) {
	r, ok := f.routes[id]
	if !ok {
		return nil, route.ErrRouteNotFound
	}
	return r, nil
}

func (f *fakePlanner) WithinBounds(b orb.Bound) []*model.Route {
	var hits []*model.Route
	for _, r := range f.routes {
		if r.Bound().Intersects(b) {
			hits = append(hits, r)
		}
	}
	return hits
}

func newTestRouter(planner *fakePlanner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRouter(r, Dependencies{
		Routes:            planner,
		PolylinePrecision: polyline.DefaultPrecision,
		Info:              map[string]string{"service": "routeline"},
		Log:               zap.NewNop(),
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code   string `json:"code"`
		Kind   string `json:"kind"`
		Offset *int   `json:"offset"`
		Index  *int   `json:"index"`
	} `json:"error"`
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestMainHandlers(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	w := doJSON(t, r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"service":"routeline"}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDecodeHandler(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	w := doJSON(t, r, http.MethodPost, "/api/polyline/decode", gin.H{"encoded": referenceEncoded})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[struct {
		Points []polyline.Coordinate `json:"points"`
		Count  int                   `json:"count"`
	}](t, w)
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.Points, 3)
	assert.InDelta(t, 43.252, body.Points[2].Lat, 1e-9)
	assert.InDelta(t, -126.453, body.Points[2].Lng, 1e-9)
}

func TestDecodeHandler_Empty(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	w := doJSON(t, r, http.MethodPost, "/api/polyline/decode", gin.H{"encoded": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"points":[],"count":0}`, w.Body.String())
}

func TestDecodeHandler_Errors(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	tests := []struct {
		name   string
		body   gin.H
		kind   string
		offset int
	}{
		{name: "truncated", body: gin.H{"encoded": "~"}, kind: "truncated", offset: 1},
		{name: "invalid byte", body: gin.H{"encoded": "?? "}, kind: "invalid_byte", offset: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/polyline/decode", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeBody[errorBody](t, w)
			assert.Equal(t, "invalid_polyline", body.Error.Code)
			assert.Equal(t, tt.kind, body.Error.Kind)
			require.NotNil(t, body.Error.Offset)
			assert.Equal(t, tt.offset, *body.Error.Offset)
		})
	}

	w := doJSON(t, r, http.MethodPost, "/api/polyline/decode", gin.H{"encoded": "??", "precision": 9})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "precision", decodeBody[errorBody](t, w).Error.Kind)
}

func TestEncodeHandler(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	w := doJSON(t, r, http.MethodPost, "/api/polyline/encode", gin.H{
		"points": []gin.H{{"lat": 38.5, "lng": -120.2}, {"lat": 40.7, "lng": -120.95}, {"lat": 43.252, "lng": -126.453}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"encoded":%q}`, referenceEncoded), w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/polyline/encode", gin.H{"points": []gin.H{{"lat": 0, "lng": 0}}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"encoded":"??"}`, w.Body.String())
}

func TestEncodeHandler_Overflow(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	w := doJSON(t, r, http.MethodPost, "/api/polyline/encode", gin.H{
		"points": []gin.H{{"lat": 0, "lng": 0}, {"lat": 1e7, "lng": 0}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody[errorBody](t, w)
	assert.Equal(t, "overflow", body.Error.Kind)
	require.NotNil(t, body.Error.Index)
	assert.Equal(t, 1, *body.Error.Index)
}

func TestDecodeBatchHandler(t *testing.T) {
	r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}})

	w := doJSON(t, r, http.MethodPost, "/api/polyline/decode/batch", gin.H{
		"items": []gin.H{
			{"encoded": "_p~iF~ps|U"},
			{"encoded": "~"},
			{"encoded": "??"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[struct {
		Results []struct {
			Points []polyline.Coordinate `json:"points"`
			Error  *struct {
				Kind string `json:"kind"`
			} `json:"error"`
		} `json:"results"`
	}](t, w)
	require.Len(t, body.Results, 3)

	assert.Equal(t, []polyline.Coordinate{{Lat: 38.5, Lng: -120.2}}, body.Results[0].Points)
	assert.Nil(t, body.Results[0].Error)

	require.NotNil(t, body.Results[1].Error)
	assert.Equal(t, "truncated", body.Results[1].Error.Kind)

	assert.Equal(t, []polyline.Coordinate{{Lat: 0, Lng: 0}}, body.Results[2].Points)
}

func TestPlanRouteHandler(t *testing.T) {
	planner := &fakePlanner{routes: map[string]*model.Route{}}
	r := newTestRouter(planner)

	w := doJSON(t, r, http.MethodPost, "/api/routes", gin.H{"origin": "Sacramento"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/routes", gin.H{"origin": "Sacramento", "destination": "Eugene"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody[model.Route](t, w)
	assert.Equal(t, "r1", body.ID)
	assert.Len(t, body.Points, 3)
}

func TestPlanRouteHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "address not found", err: fmt.Errorf("geocode origin: %w", geocode.ErrAddressNotFound), status: http.StatusUnprocessableEntity, code: "unroutable"},
		{name: "no route", err: fmt.Errorf("fetch directions: %w", directions.ErrNoRoute), status: http.StatusUnprocessableEntity, code: "unroutable"},
		{name: "bad geometry", err: fmt.Errorf("decode route geometry: %w", &polyline.DecodeError{Offset: 3, Err: polyline.ErrTruncated}), status: http.StatusBadGateway, code: "invalid_polyline"},
		{name: "upstream", err: fmt.Errorf("fetch directions: %w", errors.New("HTTP error: 500")), status: http.StatusBadGateway, code: "upstream_error"},
		{name: "timeout", err: fmt.Errorf("fetch directions: %w", context.DeadlineExceeded), status: http.StatusGatewayTimeout, code: "upstream_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakePlanner{routes: map[string]*model.Route{}, planErr: tt.err})

			w := doJSON(t, r, http.MethodPost, "/api/routes", gin.H{"origin": "a", "destination": "b"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody[errorBody](t, w).Error.Code)
		})
	}
}

func TestGetRouteHandlers(t *testing.T) {
	planner := &fakePlanner{routes: map[string]*model.Route{}}
	r := newTestRouter(planner)
	_, err := planner.Plan(context.Background(), "Sacramento", "Eugene")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/routes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/routes/r1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sacramento", decodeBody[model.Route](t, w).OriginAddress)

	w = doJSON(t, r, http.MethodGet, "/api/routes/r1/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)

	feature := decodeBody[struct {
		Type     string `json:"type"`
		ID       string `json:"id"`
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	}](t, w)
	assert.Equal(t, "Feature", feature.Type)
	assert.Equal(t, "r1", feature.ID)
	assert.Equal(t, "LineString", feature.Geometry.Type)
	require.Len(t, feature.Geometry.Coordinates, 3)
	assert.Equal(t, [2]float64{-120.2, 38.5}, feature.Geometry.Coordinates[0])
}

func TestListRoutesHandler(t *testing.T) {
	planner := &fakePlanner{routes: map[string]*model.Route{}}
	r := newTestRouter(planner)
	_, err := planner.Plan(context.Background(), "Sacramento", "Eugene")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/routes", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/routes?bbox=1,2,3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/routes?bbox=-122,39,-121,40", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody[struct {
		Routes []model.Route `json:"routes"`
		Count  int           `json:"count"`
	}](t, w)
	assert.Equal(t, 1, body.Count)
	assert.Empty(t, body.Routes[0].Points)

	w = doJSON(t, r, http.MethodGet, "/api/routes?bbox=10,10,11,11&format=geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fc := decodeBody[struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}](t, w)
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Empty(t, fc.Features)
}
