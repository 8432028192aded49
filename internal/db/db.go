package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"trackprogress/internal/route"
)

// Open parses dsn and returns a pool handle. It does not connect; use Ping.
func Open(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

const queryTimeout = 5 * time.Second

type pointLayout int

const (
	layoutUnknown pointLayout = iota
	layoutLonLatAlt           // lon, lat, alt columns
	layoutLonLat              // lon, lat columns without altitude
	layoutGeography           // PostGIS loc column, altitude from Z
)

// RouteSource reads routes from Postgres. It reports route.ErrSourceUnavailable
// until a database is attached and when the expected tables are missing.
type RouteSource struct {
	mu     sync.RWMutex
	db     *sql.DB
	layout pointLayout
}

func NewRouteSource() *RouteSource { return &RouteSource{} }

// Attach sets the database handle. Passing nil detaches it.
func (s *RouteSource) Attach(db *sql.DB) {
	s.mu.Lock()
	s.db = db
	s.layout = layoutUnknown
	s.mu.Unlock()
}

func (s *RouteSource) handle() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// FetchRoute returns the route with its points ordered by sequence, or nil
// when the id is unknown.
func (s *RouteSource) FetchRoute(ctx context.Context, id int64) (*route.Route, error) {
	db := s.handle()
	if db == nil {
		return nil, route.ErrSourceUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	r := &route.Route{ID: id}
	var name sql.NullString
	err := db.QueryRowContext(ctx, `SELECT name FROM routes WHERE route_id = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Errorf("query route: %w", err))
	}
	r.Name = name.String

	layout, err := s.pointLayout(ctx, db)
	if err != nil {
		return nil, classify(err)
	}
	pts, err := fetchPoints(ctx, db, layout, id)
	if err != nil {
		return nil, classify(err)
	}
	r.Points = pts
	return r, nil
}

func (s *RouteSource) pointLayout(ctx context.Context, db *sql.DB) (pointLayout, error) {
	s.mu.RLock()
	l := s.layout
	s.mu.RUnlock()
	if l != layoutUnknown {
		return l, nil
	}

	cols, err := hasColumns(ctx, db, "public", "route_points", "lon", "lat", "alt", "loc")
	if err != nil {
		return layoutUnknown, fmt.Errorf("introspect route_points columns: %w", err)
	}
	l, err = layoutFor(cols)
	if err != nil {
		return layoutUnknown, err
	}

	s.mu.Lock()
	if s.db == db {
		s.layout = l
	}
	s.mu.Unlock()
	return l, nil
}

// layoutFor picks the point query from the columns route_points has.
func layoutFor(cols map[string]bool) (pointLayout, error) {
	switch {
	case cols["lon"] && cols["lat"] && cols["alt"]:
		return layoutLonLatAlt, nil
	case cols["lon"] && cols["lat"]:
		return layoutLonLat, nil
	case cols["loc"]:
		return layoutGeography, nil
	default:
		return layoutUnknown, fmt.Errorf("%w: route_points missing expected columns (lon/lat or loc)", route.ErrSourceUnavailable)
	}
}

func fetchPoints(ctx context.Context, db *sql.DB, layout pointLayout, id int64) ([]route.Point, error) {
	var q string
	switch layout {
	case layoutLonLatAlt:
		q = `SELECT lon, lat, alt FROM route_points WHERE route_id = $1 ORDER BY seq`
	case layoutLonLat:
		q = `SELECT lon, lat, NULL::double precision FROM route_points WHERE route_id = $1 ORDER BY seq`
	default:
		q = `SELECT ST_X(loc::geometry), ST_Y(loc::geometry),
                    CASE WHEN ST_HasZ(loc::geometry) THEN ST_Z(loc::geometry) END
             FROM route_points WHERE route_id = $1 ORDER BY seq`
	}
	rows, err := db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("query route_points: %w", err)
	}
	defer rows.Close()

	var pts []route.Point
	for rows.Next() {
		var lon, lat float64
		var alt sql.NullFloat64
		if err := rows.Scan(&lon, &lat, &alt); err != nil {
			return nil, err
		}
		pts = append(pts, pointFromRow(lon, lat, alt))
	}
	return pts, rows.Err()
}

// pointFromRow maps a NULL altitude to a point without altitude.
func pointFromRow(lon, lat float64, alt sql.NullFloat64) route.Point {
	p := route.Point{Lon: lon, Lat: lat}
	if alt.Valid {
		p.Altitude = alt.Float64
		p.HasAltitude = true
	}
	return p
}

// classify turns schema errors into route.ErrSourceUnavailable so callers
// treat a database without route tables as having no route.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01", "42703", "3F000": // undefined_table, undefined_column, invalid_schema_name
			return fmt.Errorf("%w: %w", route.ErrSourceUnavailable, err)
		}
	}
	return err
}

// hasColumns returns a map of requested column names to existence for the given table.
func hasColumns(ctx context.Context, db *sql.DB, schema, table string, cols ...string) (map[string]bool, error) {
	res := make(map[string]bool, len(cols))
	if len(cols) == 0 {
		return res, nil
	}
	for _, c := range cols {
		res[c] = false
	}
	q := `SELECT column_name FROM information_schema.columns
          WHERE table_schema = $1 AND table_name = $2 AND column_name = ANY($3)`
	rows, err := db.QueryContext(ctx, q, schema, table, cols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}
