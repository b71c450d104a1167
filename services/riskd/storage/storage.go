// Package storage persists borrower positions, auctions and weather events
// for riskd. It satisfies the liquidation engine's state interface so the
// daemon survives restarts without losing the margin ladder.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	_ "github.com/glebarez/sqlite"

	"agrilend/native/liquidation"
	"agrilend/native/seasonal"
)

// Storage wraps the riskd persistence layer.
type Storage struct {
	db *sql.DB
}

var (
	// ErrPathRequired is returned when the backing store path is missing.
	ErrPathRequired = errors.New("riskd storage path must be configured")
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    borrower TEXT PRIMARY KEY,
    sub_commodity INTEGER NOT NULL,
    collateral TEXT NOT NULL,
    debt TEXT NOT NULL,
    status INTEGER NOT NULL,
    tier INTEGER NOT NULL,
    warned_at INTEGER NOT NULL,
    last_warning_at INTEGER NOT NULL,
    margin_called_at INTEGER NOT NULL,
    auction_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS auctions (
    id TEXT PRIMARY KEY,
    borrower TEXT NOT NULL,
    collateral_lot TEXT NOT NULL,
    start_price TEXT NOT NULL,
    floor_price TEXT NOT NULL,
    duration_seconds INTEGER NOT NULL,
    curve INTEGER NOT NULL,
    started_at INTEGER NOT NULL,
    executed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS weather_events (
    id TEXT PRIMARY KEY,
    sub_commodity INTEGER NOT NULL,
    type INTEGER NOT NULL,
    impact_bps INTEGER NOT NULL,
    duration_days INTEGER NOT NULL,
    start_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_weather_commodity ON weather_events(sub_commodity, start_at);
`

// Open initialises the backing store using a sqlite-compatible DSN.
func Open(dsn string) (*Storage, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases database resources.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetPosition loads one borrower position, or nil when none is stored.
func (s *Storage) GetPosition(borrower common.Address) (*liquidation.Position, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	row := s.db.QueryRow(`
        SELECT sub_commodity, collateral, debt, status, tier, warned_at, last_warning_at, margin_called_at, auction_id
        FROM positions WHERE borrower = ?
    `, borrower.Hex())
	var (
		subCommodity                    uint32
		collateral, debt                string
		status, tier                    int
		warnedAt, lastWarning, marginAt int64
		auctionID                       string
	)
	if err := row.Scan(&subCommodity, &collateral, &debt, &status, &tier, &warnedAt, &lastWarning, &marginAt, &auctionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query position: %w", err)
	}
	position := &liquidation.Position{
		Borrower:       borrower,
		SubCommodityID: subCommodity,
		Status:         liquidation.PositionStatus(status),
		Tier:           tier,
		WarnedAt:       unixTime(warnedAt),
		LastWarningAt:  unixTime(lastWarning),
		MarginCalledAt: unixTime(marginAt),
		AuctionID:      auctionID,
	}
	var err error
	if position.Collateral, err = parseBig(collateral); err != nil {
		return nil, fmt.Errorf("position collateral: %w", err)
	}
	if position.Debt, err = parseBig(debt); err != nil {
		return nil, fmt.Errorf("position debt: %w", err)
	}
	return position, nil
}

// PutPosition upserts a borrower position.
func (s *Storage) PutPosition(position *liquidation.Position) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	if position == nil {
		return fmt.Errorf("position required")
	}
	_, err := s.db.Exec(`
        INSERT INTO positions(borrower, sub_commodity, collateral, debt, status, tier, warned_at, last_warning_at, margin_called_at, auction_id)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(borrower) DO UPDATE SET
            sub_commodity=excluded.sub_commodity,
            collateral=excluded.collateral,
            debt=excluded.debt,
            status=excluded.status,
            tier=excluded.tier,
            warned_at=excluded.warned_at,
            last_warning_at=excluded.last_warning_at,
            margin_called_at=excluded.margin_called_at,
            auction_id=excluded.auction_id
    `, position.Borrower.Hex(), position.SubCommodityID,
		bigString(position.Collateral), bigString(position.Debt),
		int(position.Status), position.Tier,
		unixOrZero(position.WarnedAt), unixOrZero(position.LastWarningAt), unixOrZero(position.MarginCalledAt),
		position.AuctionID)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// GetAuction loads one auction, or nil when the id is unknown.
func (s *Storage) GetAuction(id string) (*liquidation.Auction, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	row := s.db.QueryRow(`
        SELECT borrower, collateral_lot, start_price, floor_price, duration_seconds, curve, started_at, executed
        FROM auctions WHERE id = ?
    `, strings.TrimSpace(id))
	var (
		borrower, lot, start, floor string
		durationSeconds             int64
		curve                       int
		startedAt                   int64
		executed                    int
	)
	if err := row.Scan(&borrower, &lot, &start, &floor, &durationSeconds, &curve, &startedAt, &executed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query auction: %w", err)
	}
	auction := &liquidation.Auction{
		ID:       strings.TrimSpace(id),
		Borrower: common.HexToAddress(borrower),
		Params: liquidation.AuctionParams{
			Duration: time.Duration(durationSeconds) * time.Second,
			Curve:    liquidation.DecayCurve(curve),
		},
		StartedAt: unixTime(startedAt),
		Executed:  executed != 0,
	}
	var err error
	if auction.CollateralLot, err = parseBig(lot); err != nil {
		return nil, fmt.Errorf("auction lot: %w", err)
	}
	if auction.Params.StartPrice, err = parseBig(start); err != nil {
		return nil, fmt.Errorf("auction start price: %w", err)
	}
	if auction.Params.FloorPrice, err = parseBig(floor); err != nil {
		return nil, fmt.Errorf("auction floor price: %w", err)
	}
	return auction, nil
}

// PutAuction upserts an auction record.
func (s *Storage) PutAuction(auction *liquidation.Auction) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	if auction == nil || strings.TrimSpace(auction.ID) == "" {
		return fmt.Errorf("auction id required")
	}
	executed := 0
	if auction.Executed {
		executed = 1
	}
	_, err := s.db.Exec(`
        INSERT INTO auctions(id, borrower, collateral_lot, start_price, floor_price, duration_seconds, curve, started_at, executed)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            borrower=excluded.borrower,
            collateral_lot=excluded.collateral_lot,
            start_price=excluded.start_price,
            floor_price=excluded.floor_price,
            duration_seconds=excluded.duration_seconds,
            curve=excluded.curve,
            started_at=excluded.started_at,
            executed=excluded.executed
    `, auction.ID, auction.Borrower.Hex(),
		bigString(auction.CollateralLot), bigString(auction.Params.StartPrice), bigString(auction.Params.FloorPrice),
		int64(auction.Params.Duration/time.Second), int(auction.Params.Curve),
		unixOrZero(auction.StartedAt), executed)
	if err != nil {
		return fmt.Errorf("upsert auction: %w", err)
	}
	return nil
}

// RecordWeatherEvent persists a registered weather event.
func (s *Storage) RecordWeatherEvent(event seasonal.WeatherEvent) error {
	if s == nil {
		return fmt.Errorf("storage not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("weather event id required")
	}
	_, err := s.db.Exec(`
        INSERT INTO weather_events(id, sub_commodity, type, impact_bps, duration_days, start_at)
        VALUES(?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO NOTHING
    `, event.ID, event.SubCommodityID, int(event.Type), event.ImpactBps, event.DurationDays, event.Start.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert weather event: %w", err)
	}
	return nil
}

// WeatherEvents returns the recorded events for a commodity, newest first.
func (s *Storage) WeatherEvents(subCommodityID uint32) ([]seasonal.WeatherEvent, error) {
	if s == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	rows, err := s.db.Query(`
        SELECT id, type, impact_bps, duration_days, start_at
        FROM weather_events WHERE sub_commodity = ?
        ORDER BY start_at DESC
    `, subCommodityID)
	if err != nil {
		return nil, fmt.Errorf("query weather events: %w", err)
	}
	defer rows.Close()
	var events []seasonal.WeatherEvent
	for rows.Next() {
		var (
			id           string
			eventType    int
			impact       int64
			durationDays uint64
			startAt      int64
		)
		if err := rows.Scan(&id, &eventType, &impact, &durationDays, &startAt); err != nil {
			return nil, fmt.Errorf("scan weather event: %w", err)
		}
		events = append(events, seasonal.WeatherEvent{
			ID:             id,
			SubCommodityID: subCommodityID,
			Type:           seasonal.WeatherEventType(eventType),
			ImpactBps:      impact,
			DurationDays:   durationDays,
			Start:          unixTime(startAt),
		})
	}
	return events, rows.Err()
}

func parseBig(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", raw)
	}
	return value, nil
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().Unix()
}

func unixTime(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}
