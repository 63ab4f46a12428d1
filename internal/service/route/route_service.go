package route

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"routeline/internal/directions"
	"routeline/internal/model"
	"routeline/internal/polyline"
	"routeline/internal/service/storage"
	"routeline/internal/util"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrEmptyAddress  = errors.New("origin and destination are required")
)

// Geocoder resolves an address to a coordinate
type Geocoder interface {
	Geocode(ctx context.Context, address string) (polyline.Coordinate, error)
}

// DirectionsProvider returns a route between two coordinates
type DirectionsProvider interface {
	Route(ctx context.Context, origin, destination polyline.Coordinate) (*directions.Route, error)
}

// RouteStore persists routes
type RouteStore interface {
	SaveRoutes(ctx context.Context, routes []*model.Route) error
	LoadRoutes(ctx context.Context) ([]*model.Route, error)
}

// RouteService plans routes, keeps them in memory and indexes their bounds
type RouteService struct {
	geocoder   Geocoder
	directions DirectionsProvider
	store      RouteStore

	storage      storage.Storage[string, *model.Route]
	spatialIndex *rtreego.Rtree
	indexMutex   sync.RWMutex

	log *zap.Logger
}

// NewRouteService wires a route service. store may be nil, in which case
// routes live only in memory.
func NewRouteService(geocoder Geocoder, provider DirectionsProvider, store RouteStore, log *zap.Logger) *RouteService {
	return &RouteService{
		geocoder:     geocoder,
		directions:   provider,
		store:        store,
		storage:      storage.NewMemoryStorage[string, *model.Route](),
		spatialIndex: rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
		log:          log,
	}
}

// Plan geocodes both addresses, asks the directions provider for a route and
// decodes its geometry. A geometry that does not decode fails the whole plan.
func (s *RouteService) Plan(ctx context.Context, originAddress, destinationAddress string) (*model.Route, error) {
	originAddress = strings.TrimSpace(originAddress)
	destinationAddress = strings.TrimSpace(destinationAddress)
	if originAddress == "" || destinationAddress == "" {
		return nil, ErrEmptyAddress
	}

	origin, err := s.geocoder.Geocode(ctx, originAddress)
	if err != nil {
		return nil, fmt.Errorf("geocode origin %q: %w", originAddress, err)
	}
	destination, err := s.geocoder.Geocode(ctx, destinationAddress)
	if err != nil {
		return nil, fmt.Errorf("geocode destination %q: %w", destinationAddress, err)
	}

	found, err := s.directions.Route(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("fetch directions: %w", err)
	}

	points, err := decodePoints(found.Polyline, found.Precision)
	if err != nil {
		return nil, fmt.Errorf("decode route geometry: %w", err)
	}

	now := time.Now()
	route := &model.Route{
		ID:                 util.ShortUUID(),
		OriginAddress:      originAddress,
		DestinationAddress: destinationAddress,
		OriginLat:          origin.Lat,
		OriginLng:          origin.Lng,
		DestinationLat:     destination.Lat,
		DestinationLng:     destination.Lng,
		Polyline:           found.Polyline,
		Precision:          found.Precision,
		Summary:            found.Summary,
		DistanceMeters:     found.DistanceMeters,
		DurationSeconds:    found.DurationSeconds,
		LengthMeters:       util.RouteLength(points),
		DirectMeters:       util.HaversineDistance(origin, destination),
		CreatedAt:          now,
		UpdatedAt:          now,
		Points:             points,
	}

	s.storage.Set(route.ID, route)
	s.indexRoute(route)

	s.log.Info("route planned",
		zap.String("id", route.ID),
		zap.Int("points", len(points)),
		zap.Float64("length_meters", route.LengthMeters),
	)
	return route, nil
}

// Get returns a route by ID
func (s *RouteService) Get(id string) (*model.Route, error) {
	route, ok := s.storage.Get(id)
	if !ok {
		return nil, ErrRouteNotFound
	}
	return route, nil
}

// WithinBounds returns the routes whose bounding box intersects b
func (s *RouteService) WithinBounds(b orb.Bound) []*model.Route {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	hits := s.spatialIndex.SearchIntersect(model.BoundToRect(b))
	routes := make([]*model.Route, 0, len(hits))
	for _, hit := range hits {
		routes = append(routes, hit.(*model.RouteSpatial).Route)
	}
	return routes
}

// Count returns the number of routes in memory
func (s *RouteService) Count() int {
	return s.storage.Count()
}

// Load reads persisted routes into memory. Rows whose geometry no longer
// decodes are skipped.
func (s *RouteService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	startTime := time.Now()
	routes, err := s.store.LoadRoutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}

	skipped := 0
	for _, route := range routes {
		points, err := decodePoints(route.Polyline, route.Precision)
		if err != nil {
			s.log.Warn("skipping route with invalid geometry", zap.String("id", route.ID), zap.Error(err))
			skipped++
			continue
		}
		route.Points = points

		s.storage.Load(route.ID, route)
		s.indexRoute(route)
	}

	s.log.Info("routes loaded",
		zap.Int("loaded", len(routes)-skipped),
		zap.Int("skipped", skipped),
		zap.Duration("took", time.Since(startTime)),
	)
	return nil
}

// FlushDirty saves modified routes to the store. Dirty flags are cleared
// only after a successful save.
func (s *RouteService) FlushDirty(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}

	snapshot := time.Now()
	dirty := s.storage.GetDirty()
	if len(dirty) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(dirty))
	routes := make([]*model.Route, 0, len(dirty))
	for id, route := range dirty {
		keys = append(keys, id)
		routes = append(routes, route)
	}

	if err := s.store.SaveRoutes(ctx, routes); err != nil {
		return 0, fmt.Errorf("failed to save routes: %w", err)
	}

	s.storage.ClearDirty(keys, snapshot)
	return len(routes), nil
}

func (s *RouteService) indexRoute(route *model.Route) {
	if len(route.Points) == 0 {
		return
	}

	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	s.spatialIndex.Insert(&model.RouteSpatial{Route: route, Box: route.Bound()})
}

func decodePoints(encoded string, precision int) ([]polyline.Coordinate, error) {
	codec, err := polyline.NewCodec(precision)
	if err != nil {
		return nil, err
	}
	return codec.Decode(encoded)
}
