package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dump-dvb/lofi/pkg"
	da "github.com/dump-dvb/lofi/pkg/datastructure"
	"github.com/dump-dvb/lofi/pkg/geo"
	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// fixed width, so created_at sorts as text
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

type RunKind string

const (
	RunKindLocations RunKind = "locations"
	RunKindGraph     RunKind = "graph"
)

// Store. sqlite persistence of pipeline results, one run per pipeline execution.
type Store struct {
	conn    *sql.DB
	writeMu sync.Mutex
	log     *zap.Logger
}

// Connect opens (or creates) the database at dbPath and ensures the schema.
func Connect(ctx context.Context, dbPath string, log *zap.Logger) (*Store, error) {
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "open database %s", dbPath)
	}
	// sqlite has a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "ping database %s", dbPath)
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "create schema")
	}

	log.Info("Connected to SQLite database", zap.String("path", dbPath))
	return &Store{conn: conn, log: log}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// insertRun registers a new run inside tx, so a run only becomes visible together with
// its payload.
func insertRun(ctx context.Context, tx *sql.Tx, kind RunKind) (string, error) {
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, kind, created_at, generator, generator_version) VALUES (?, ?, ?, ?, ?)`,
		id, string(kind), time.Now().UTC().Format(createdAtLayout), pkg.GENERATOR, pkg.GENERATOR_VERSION)
	if err != nil {
		return "", util.WrapErrorf(err, util.ErrInternalServerError, "insert run")
	}
	return id, nil
}

// LatestRun. id of the most recent run of kind, ErrNotFound if there is none.
func (s *Store) LatestRun(ctx context.Context, kind RunKind) (string, error) {
	var id string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM runs WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(kind)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", util.WrapErrorf(err, util.ErrNotFound, "no %s run stored", kind)
	}
	if err != nil {
		return "", util.WrapErrorf(err, util.ErrInternalServerError, "query latest run")
	}
	return id, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "commit transaction")
	}
	return nil
}

// SaveLocations stores every location and region metadata record of doc as a new locations
// run and returns its id. Nothing is stored when any insert fails.
func (s *Store) SaveLocations(ctx context.Context, doc *da.LocationsDocument) (string, error) {
	var runID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		runID, err = insertRun(ctx, tx, RunKindLocations)
		if err != nil {
			return err
		}

		locStmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO locations (run_id, region, reporting_point, lat, lon, x, y) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "prepare locations insert")
		}
		defer locStmt.Close()

		count := 0
		for _, region := range util.SortedKeys(doc.Data) {
			locs := doc.Data[region]
			for _, rp := range util.SortedKeys(locs) {
				loc := locs[rp]
				var x, y sql.NullFloat64
				if p := loc.Properties.Epsg3857; p != nil {
					x = sql.NullFloat64{Float64: p.X, Valid: true}
					y = sql.NullFloat64{Float64: p.Y, Valid: true}
				}
				if _, err := locStmt.ExecContext(ctx, runID, region, rp, loc.Lat, loc.Lon, x, y); err != nil {
					return util.WrapErrorf(err, util.ErrInternalServerError, "insert location %d/%d", region, rp)
				}
				count++
			}
		}

		for _, region := range util.SortedKeys(doc.Meta) {
			m := doc.Meta[region]
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO region_meta (run_id, region, frequency, city_name, type_r09, lat, lon) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, region, nullUint(m.Frequency), nullString(m.CityName), nullString(m.TypeR09),
				nullFloat(m.Lat), nullFloat(m.Lon))
			if err != nil {
				return util.WrapErrorf(err, util.ErrInternalServerError, "insert region meta %d", region)
			}
		}

		s.log.Info("stored locations", zap.String("run", runID), zap.Int("locations", count))
		return nil
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

// LoadLocations of one region of a run. ErrNotFound when the run has no such region.
func (s *Store) LoadLocations(ctx context.Context, runID string, region int64) (da.RegionReportLocations, da.RegionMeta, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT reporting_point, lat, lon, x, y FROM locations WHERE run_id = ? AND region = ? ORDER BY reporting_point`,
		runID, region)
	if err != nil {
		return nil, da.RegionMeta{}, util.WrapErrorf(err, util.ErrInternalServerError, "query locations")
	}
	defer rows.Close()

	locs := make(da.RegionReportLocations)
	for rows.Next() {
		var (
			rp   int32
			loc  da.LocationEstimate
			x, y sql.NullFloat64
		)
		if err := rows.Scan(&rp, &loc.Lat, &loc.Lon, &x, &y); err != nil {
			return nil, da.RegionMeta{}, util.WrapErrorf(err, util.ErrInternalServerError, "scan location")
		}
		if x.Valid && y.Valid {
			loc.Properties.Epsg3857 = &da.Projected{X: x.Float64, Y: y.Float64}
		}
		locs[rp] = loc
	}
	if err := rows.Err(); err != nil {
		return nil, da.RegionMeta{}, util.WrapErrorf(err, util.ErrInternalServerError, "iterate locations")
	}
	// single connection: release it before the next query
	rows.Close()
	if len(locs) == 0 {
		return nil, da.RegionMeta{}, util.WrapErrorf(nil, util.ErrNotFound, "region %d has no locations", region)
	}

	var (
		meta     da.RegionMeta
		freq     sql.NullInt64
		city     sql.NullString
		typeR09  sql.NullString
		lat, lon sql.NullFloat64
	)
	err = s.conn.QueryRowContext(ctx,
		`SELECT frequency, city_name, type_r09, lat, lon FROM region_meta WHERE run_id = ? AND region = ?`,
		runID, region).Scan(&freq, &city, &typeR09, &lat, &lon)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, da.RegionMeta{}, util.WrapErrorf(err, util.ErrInternalServerError, "query region meta")
	default:
		if freq.Valid {
			f := uint64(freq.Int64)
			meta.Frequency = &f
		}
		if city.Valid {
			meta.CityName = &city.String
		}
		if typeR09.Valid {
			meta.TypeR09 = &typeR09.String
		}
		if lat.Valid {
			meta.Lat = &lat.Float64
		}
		if lon.Valid {
			meta.Lon = &lon.Float64
		}
	}
	return locs, meta, nil
}

// SaveRegionGraph stores the path segments of one region as a new graph run and returns
// its id. Nothing is stored when any segment fails.
func (s *Store) SaveRegionGraph(ctx context.Context, region int64, graph da.RegionGraph) (string, error) {
	var runID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		runID, err = insertRun(ctx, tx, RunKindGraph)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO path_segments (run_id, region, reporting_point, next_reporting_point,
				historical_time, polyline, snap_deviation, positions) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return util.WrapErrorf(err, util.ErrInternalServerError, "prepare path segment insert")
		}
		defer stmt.Close()

		for _, from := range util.SortedKeys(graph) {
			for _, seg := range graph[from] {
				positions, err := json.Marshal(seg.Positions)
				if err != nil {
					return util.WrapErrorf(err, util.ErrInternalServerError, "encode positions")
				}
				_, err = stmt.ExecContext(ctx, runID, region, from, seg.NextReportingPoint, seg.HistoricalTime,
					seg.Polyline, seg.SnapDeviation, string(positions))
				if err != nil {
					return util.WrapErrorf(err, util.ErrInternalServerError, "insert path segment %d->%d", from, seg.NextReportingPoint)
				}
			}
		}

		s.log.Info("stored region graph", zap.String("run", runID), zap.Int64("region", region),
			zap.Int("segments", graph.Edges()))
		return nil
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

// LoadRegionGraph of one region of a run, segments ordered by destination. Coordinates
// are decoded from the stored polyline.
func (s *Store) LoadRegionGraph(ctx context.Context, runID string, region int64) (da.RegionGraph, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT reporting_point, next_reporting_point, historical_time, polyline, snap_deviation, positions
		FROM path_segments WHERE run_id = ? AND region = ? ORDER BY reporting_point, next_reporting_point`,
		runID, region)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "query path segments")
	}
	defer rows.Close()

	graph := make(da.RegionGraph)
	for rows.Next() {
		var (
			from      int32
			seg       da.PathSegment
			positions string
		)
		if err := rows.Scan(&from, &seg.NextReportingPoint, &seg.HistoricalTime, &seg.Polyline,
			&seg.SnapDeviation, &positions); err != nil {
			return nil, util.WrapErrorf(err, util.ErrInternalServerError, "scan path segment")
		}
		if err := json.Unmarshal([]byte(positions), &seg.Positions); err != nil {
			return nil, util.WrapErrorf(err, util.ErrMalformedInput, "decode positions %d->%d", from, seg.NextReportingPoint)
		}
		if seg.Polyline != "" {
			seg.Coordinates, err = geo.CoordsFromPolyline(seg.Polyline)
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrMalformedInput, "decode polyline %d->%d", from, seg.NextReportingPoint)
			}
		}
		graph[from] = append(graph[from], seg)
	}
	if err := rows.Err(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "iterate path segments")
	}
	if len(graph) == 0 {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "region %d has no graph", region)
	}
	return graph, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullUint(v *uint64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
