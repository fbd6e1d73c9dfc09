package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// maxKeysPerQuery bounds the number of (code, date) pairs in one lookup.
const maxKeysPerQuery = 200

// Store implements interfaces.AssetStore
type Store struct {
	db     *DB
	logger *common.Logger
}

// NewStore creates a store over an open connection.
func NewStore(db *DB, logger *common.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// GetHoldingsWithDetails returns the user's holdings of assetType joined with
// their instrument names.
func (s *Store) GetHoldingsWithDetails(ctx context.Context, userID int64, assetType models.AssetType) ([]models.Holding, error) {
	query := s.db.Rebind(`
		SELECT h.id, h.user_id, h.asset_type, h.code, COALESCE(i.name, ''),
		       h.quantity, h.purchase_date, h.purchase_price, h.currency
		FROM holdings h
		LEFT JOIN instruments i ON i.code = h.code
		WHERE h.user_id = ? AND h.asset_type = ?
		ORDER BY h.id
	`)

	rows, err := s.db.QueryContext(ctx, query, userID, string(assetType))
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		var assetTypeStr, quantityStr, dateStr, priceStr string
		if err := rows.Scan(&h.ID, &h.UserID, &assetTypeStr, &h.Code, &h.Name,
			&quantityStr, &dateStr, &priceStr, &h.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.AssetType = models.AssetType(assetTypeStr)
		if h.Quantity, err = parseNumeric(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse quantity of holding %d: %w", h.ID, err)
		}
		if h.PurchasePrice, err = parseNumeric(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse purchase_price of holding %d: %w", h.ID, err)
		}
		if h.PurchaseDate, err = parseDate(dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse purchase_date of holding %d: %w", h.ID, err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return holdings, nil
}

// GetDailyRecords returns the records that exist for keys. Duplicate keys
// are looked up once.
func (s *Store) GetDailyRecords(ctx context.Context, keys []models.DailyKey) ([]models.DailyPriceRecord, error) {
	unique := dedupeKeys(keys)
	var records []models.DailyPriceRecord

	for start := 0; start < len(unique); start += maxKeysPerQuery {
		end := start + maxKeysPerQuery
		if end > len(unique) {
			end = len(unique)
		}
		chunk, err := s.getDailyChunk(ctx, unique[start:end])
		if err != nil {
			return nil, err
		}
		records = append(records, chunk...)
	}
	return records, nil
}

func (s *Store) getDailyChunk(ctx context.Context, keys []models.DailyKey) ([]models.DailyPriceRecord, error) {
	conds := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)*2)
	for i, k := range keys {
		conds[i] = "(code = ? AND trade_date = ?)"
		args = append(args, k.Code, k.Date)
	}

	query := s.db.Rebind(`
		SELECT code, trade_date, close_price, currency
		FROM daily_prices
		WHERE ` + strings.Join(conds, " OR "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var records []models.DailyPriceRecord
	for rows.Next() {
		var r models.DailyPriceRecord
		var dateStr, closeStr string
		if err := rows.Scan(&r.Code, &dateStr, &closeStr, &r.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		if r.TradeDate, err = parseDate(dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse trade_date of %s: %w", r.Code, err)
		}
		if r.ClosePrice, err = parseNumeric(closeStr); err != nil {
			return nil, fmt.Errorf("failed to parse close_price of %s: %w", r.Code, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}
	return records, nil
}

// GetTip retrieves one tip by id
func (s *Store) GetTip(ctx context.Context, id int64) (*models.Tip, error) {
	query := s.db.Rebind(`SELECT id, tip FROM tips WHERE id = ?`)

	var tip models.Tip
	err := s.db.QueryRowContext(ctx, query, id).Scan(&tip.ID, &tip.Tip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tip %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tip %d: %w", id, err)
	}
	return &tip, nil
}

// ListTipIDs returns all tip ids in ascending order.
func (s *Store) ListTipIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tips ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tip id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListInstruments returns the instrument universe ordered by code.
func (s *Store) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name, market, currency FROM instruments ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	var instruments []models.Instrument
	for rows.Next() {
		var inst models.Instrument
		if err := rows.Scan(&inst.Code, &inst.Name, &inst.Market, &inst.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instruments: %w", err)
	}
	return instruments, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func dedupeKeys(keys []models.DailyKey) []models.DailyKey {
	seen := make(map[models.DailyKey]bool, len(keys))
	unique := make([]models.DailyKey, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, k)
	}
	return unique
}

// parseNumeric reads a NUMERIC column scanned as text.
func parseNumeric(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// parseDate accepts YYYY-MM-DD with or without a time suffix, since drivers
// return DATE columns either way.
func parseDate(s string) (time.Time, error) {
	if len(s) < len(models.DateLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return time.Parse(models.DateLayout, s[:len(models.DateLayout)])
}

var _ interfaces.AssetStore = (*Store)(nil)
