// Package surrealdb implements the asset store on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
	"github.com/tptkds/assetManagement/internal/models"
)

// Tables defined on connect. SurrealDB errors on querying undefined tables.
var tables = []string{"instrument", "holding", "daily_price", "tip"}

// Records keep dates as YYYY-MM-DD text and never select the record id.
type holdingRecord struct {
	HoldingID     int64   `json:"holding_id"`
	UserID        int64   `json:"user_id"`
	AssetType     string  `json:"asset_type"`
	Code          string  `json:"code"`
	Quantity      float64 `json:"quantity"`
	PurchaseDate  string  `json:"purchase_date"`
	PurchasePrice float64 `json:"purchase_price"`
	Currency      string  `json:"currency"`
}

type dailyPriceRecord struct {
	Code       string  `json:"code"`
	TradeDate  string  `json:"trade_date"`
	ClosePrice float64 `json:"close_price"`
	Currency   string  `json:"currency"`
}

type tipRecord struct {
	TipID int64  `json:"tip_id"`
	Tip   string `json:"tip"`
}

type instrumentRecord struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Market   string `json:"market"`
	Currency string `json:"currency"`
}

// Store implements interfaces.AssetStore using SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// Connect signs in, selects the namespace and defines the tables.
func Connect(ctx context.Context, cfg common.SurrealConfig, logger *common.Logger) (*Store, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	store, err := NewStore(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB asset store initialized")

	return store, nil
}

// NewStore wraps an already selected connection and defines the tables.
func NewStore(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Store, error) {
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) GetHoldingsWithDetails(ctx context.Context, userID int64, assetType models.AssetType) ([]models.Holding, error) {
	sql := `SELECT holding_id, user_id, asset_type, code, quantity, purchase_date, purchase_price, currency
		FROM holding WHERE user_id = $user AND asset_type = $type ORDER BY holding_id ASC`
	vars := map[string]any{"user": userID, "type": string(assetType)}

	results, err := surrealdb.Query[[]holdingRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	recs := (*results)[0].Result
	if len(recs) == 0 {
		return nil, nil
	}

	names, err := s.instrumentNames(ctx)
	if err != nil {
		return nil, err
	}

	holdings := make([]models.Holding, 0, len(recs))
	for _, r := range recs {
		date, err := time.Parse(models.DateLayout, r.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse purchase_date of holding %d: %w", r.HoldingID, err)
		}
		holdings = append(holdings, models.Holding{
			ID:            r.HoldingID,
			UserID:        r.UserID,
			AssetType:     models.AssetType(r.AssetType),
			Code:          r.Code,
			Name:          names[r.Code],
			Quantity:      r.Quantity,
			PurchaseDate:  date,
			PurchasePrice: r.PurchasePrice,
			Currency:      r.Currency,
		})
	}
	return holdings, nil
}

func (s *Store) instrumentNames(ctx context.Context) (map[string]string, error) {
	instruments, err := s.ListInstruments(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(instruments))
	for _, inst := range instruments {
		names[inst.Code] = inst.Name
	}
	return names, nil
}

// GetDailyRecords selects by code and date sets, then keeps exact key matches.
func (s *Store) GetDailyRecords(ctx context.Context, keys []models.DailyKey) ([]models.DailyPriceRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	wanted := make(map[models.DailyKey]bool, len(keys))
	codeSet := make(map[string]bool)
	dateSet := make(map[string]bool)
	for _, k := range keys {
		wanted[k] = true
		codeSet[k.Code] = true
		dateSet[k.Date] = true
	}
	codes := make([]string, 0, len(codeSet))
	for c := range codeSet {
		codes = append(codes, c)
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}

	sql := "SELECT code, trade_date, close_price, currency FROM daily_price WHERE code IN $codes AND trade_date IN $dates"
	vars := map[string]any{"codes": codes, "dates": dates}

	results, err := surrealdb.Query[[]dailyPriceRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	var records []models.DailyPriceRecord
	for _, r := range (*results)[0].Result {
		if !wanted[models.DailyKey{Code: r.Code, Date: r.TradeDate}] {
			continue
		}
		date, err := time.Parse(models.DateLayout, r.TradeDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trade_date of %s: %w", r.Code, err)
		}
		records = append(records, models.DailyPriceRecord{
			Code:       r.Code,
			TradeDate:  date,
			ClosePrice: r.ClosePrice,
			Currency:   r.Currency,
		})
	}
	return records, nil
}

func (s *Store) GetTip(ctx context.Context, id int64) (*models.Tip, error) {
	sql := "SELECT tip_id, tip FROM tip WHERE tip_id = $id LIMIT 1"
	results, err := surrealdb.Query[[]tipRecord](ctx, s.db, sql, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get tip %d: %w", id, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("tip %d: %w", id, models.ErrNotFound)
	}
	r := (*results)[0].Result[0]
	return &models.Tip{ID: r.TipID, Tip: r.Tip}, nil
}

func (s *Store) ListTipIDs(ctx context.Context) ([]int64, error) {
	sql := "SELECT tip_id, tip FROM tip ORDER BY tip_id ASC"
	results, err := surrealdb.Query[[]tipRecord](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	var ids []int64
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			ids = append(ids, r.TipID)
		}
	}
	return ids, nil
}

func (s *Store) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	sql := "SELECT code, name, market, currency FROM instrument ORDER BY code ASC"
	results, err := surrealdb.Query[[]instrumentRecord](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	var instruments []models.Instrument
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			instruments = append(instruments, models.Instrument{
				Code:     r.Code,
				Name:     r.Name,
				Market:   r.Market,
				Currency: r.Currency,
			})
		}
	}
	return instruments, nil
}

// SaveInstrument upserts an instrument keyed by code.
func (s *Store) SaveInstrument(ctx context.Context, inst models.Instrument) error {
	rec := instrumentRecord{Code: inst.Code, Name: inst.Name, Market: inst.Market, Currency: inst.Currency}
	return s.upsert(ctx, "instrument", inst.Code, rec)
}

// SaveHolding upserts a holding keyed by its id.
func (s *Store) SaveHolding(ctx context.Context, h models.Holding) error {
	rec := holdingRecord{
		HoldingID:     h.ID,
		UserID:        h.UserID,
		AssetType:     string(h.AssetType),
		Code:          h.Code,
		Quantity:      h.Quantity,
		PurchaseDate:  h.PurchaseDate.Format(models.DateLayout),
		PurchasePrice: h.PurchasePrice,
		Currency:      h.Currency,
	}
	return s.upsert(ctx, "holding", h.ID, rec)
}

// SaveDailyRecord upserts a daily close keyed by code and date.
func (s *Store) SaveDailyRecord(ctx context.Context, r models.DailyPriceRecord) error {
	key := r.Key()
	rec := dailyPriceRecord{Code: key.Code, TradeDate: key.Date, ClosePrice: r.ClosePrice, Currency: r.Currency}
	return s.upsert(ctx, "daily_price", []any{key.Code, key.Date}, rec)
}

// SaveTip upserts a tip keyed by its id.
func (s *Store) SaveTip(ctx context.Context, tip models.Tip) error {
	return s.upsert(ctx, "tip", tip.ID, tipRecord{TipID: tip.ID, Tip: tip.Tip})
}

func (s *Store) upsert(ctx context.Context, table string, id any, content any) error {
	sql := "UPSERT $rid CONTENT $content"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(table, id), "content": content}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", table, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

var _ interfaces.AssetStore = (*Store)(nil)
