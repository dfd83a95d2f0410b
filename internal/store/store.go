package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sfpark-collector/internal/model"
)

// DefaultBatchSize bounds the rows sent in a single INSERT.
const DefaultBatchSize = 500

var (
	// ErrNotFound is returned by lookups of a missing location.
	ErrNotFound = eris.New("store: not found")
	// ErrOrphanFact is returned when a row references a location that is not in
	// the location table.
	ErrOrphanFact = eris.New("store: row references a missing location")
)

// Store defines the interface for all database operations.
type Store interface {
	// LocationIDs returns every persisted location id.
	LocationIDs(ctx context.Context) ([]int64, error)
	// Begin opens a transaction for one cycle's writes.
	Begin(ctx context.Context) (Tx, error)
	// SaveBatch writes a whole batch atomically.
	SaveBatch(ctx context.Context, batch model.Batch) error

	ListLocations(ctx context.Context, limit, offset int) ([]model.Location, error)
	GetLocation(ctx context.Context, id int64) (*model.Location, error)
	Availability(ctx context.Context, locID int64, dateID, limit int) ([]model.Availability, error)
	Rates(ctx context.Context, locID int64, dateID int) ([]model.Rate, error)
	Hours(ctx context.Context, locID int64, dateID int) ([]model.OperatingHours, error)
	Counts(ctx context.Context) (Counts, error)

	Close() error
}

// Tx is a single cycle's unit of work. Nothing is visible until Commit.
type Tx interface {
	InsertLocations(locs []model.Location) error
	AppendAvailability(rows []model.Availability) error
	AppendRates(rows []model.Rate) error
	AppendHours(rows []model.OperatingHours) error
	Commit() error
	Rollback() error
}

// Counts holds the row count of every table.
type Counts struct {
	Locations    int64 `json:"locations"`
	Availability int64 `json:"availability"`
	Rates        int64 `json:"rates"`
	Hours        int64 `json:"operating_hours"`
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db        *gorm.DB
	batchSize int
}

// NewGormStore creates a new GORM-backed store. batchSize <= 0 selects
// DefaultBatchSize.
func NewGormStore(db *gorm.DB, batchSize int) Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &gormStore{db: db, batchSize: batchSize}
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return eris.Wrap(err, "store: get sql.DB")
	}
	return sqlDB.Close()
}

func (s *gormStore) LocationIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Location{}).Pluck("id", &ids).Error; err != nil {
		return nil, eris.Wrap(err, "store: load location ids")
	}
	return ids, nil
}

func (s *gormStore) Begin(ctx context.Context) (Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, eris.Wrap(tx.Error, "store: begin")
	}
	return &gormTx{tx: tx, batchSize: s.batchSize}, nil
}

// SaveBatch inserts locations first so that the fact and schedule rows of the
// same cycle can reference them, then commits. Any failure rolls back every
// table.
func (s *gormStore) SaveBatch(ctx context.Context, batch model.Batch) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			zap.L().Warn("rollback failed", zap.Error(rbErr))
		}
	}()

	if err = tx.InsertLocations(batch.Locations); err != nil {
		return err
	}
	if err = tx.AppendAvailability(batch.Availability); err != nil {
		return err
	}
	if err = tx.AppendRates(batch.Rates); err != nil {
		return err
	}
	if err = tx.AppendHours(batch.Hours); err != nil {
		return err
	}
	return tx.Commit()
}

type gormTx struct {
	tx        *gorm.DB
	batchSize int
}

// InsertLocations skips ids that already exist; location rows are never updated.
func (t *gormTx) InsertLocations(locs []model.Location) error {
	if len(locs) == 0 {
		return nil
	}
	err := t.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).CreateInBatches(&locs, t.batchSize).Error
	return classify(err, "insert locations")
}

func (t *gormTx) AppendAvailability(rows []model.Availability) error {
	if len(rows) == 0 {
		return nil
	}
	return classify(t.tx.CreateInBatches(&rows, t.batchSize).Error, "append availability")
}

func (t *gormTx) AppendRates(rows []model.Rate) error {
	if len(rows) == 0 {
		return nil
	}
	return classify(t.tx.CreateInBatches(&rows, t.batchSize).Error, "append rates")
}

func (t *gormTx) AppendHours(rows []model.OperatingHours) error {
	if len(rows) == 0 {
		return nil
	}
	return classify(t.tx.CreateInBatches(&rows, t.batchSize).Error, "append operating hours")
}

func (t *gormTx) Commit() error {
	return classify(t.tx.Commit().Error, "commit")
}

func (t *gormTx) Rollback() error {
	return t.tx.Rollback().Error
}

// classify wraps err, marking foreign key violations as ErrOrphanFact.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return eris.Wrapf(ErrOrphanFact, "store: %s: %s (%s)", op, pgErr.Message, pgErr.ConstraintName)
	}
	return eris.Wrapf(err, "store: %s", op)
}

// --- Read side ---

func (s *gormStore) ListLocations(ctx context.Context, limit, offset int) ([]model.Location, error) {
	var locs []model.Location
	err := s.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&locs).Error
	if err != nil {
		return nil, eris.Wrap(err, "store: list locations")
	}
	return locs, nil
}

func (s *gormStore) GetLocation(ctx context.Context, id int64) (*model.Location, error) {
	var loc model.Location
	err := s.db.WithContext(ctx).First(&loc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get location %d", id)
	}
	return &loc, nil
}

// Availability returns the newest observations of a location, optionally
// restricted to one date bucket (dateID 0 means any).
func (s *gormStore) Availability(ctx context.Context, locID int64, dateID, limit int) ([]model.Availability, error) {
	q := s.db.WithContext(ctx).Where("loc_id = ?", locID)
	if dateID != 0 {
		q = q.Where("date_id = ?", dateID)
	}
	var rows []model.Availability
	if err := q.Order("updated_timestamp DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, eris.Wrapf(err, "store: availability of %d", locID)
	}
	return rows, nil
}

// Rates returns the rate schedule of a location for dateID, or for the latest
// recorded date when dateID is 0.
func (s *gormStore) Rates(ctx context.Context, locID int64, dateID int) ([]model.Rate, error) {
	var rows []model.Rate
	if err := s.scheduleQuery(ctx, &model.Rate{}, locID, dateID).Order("id").Find(&rows).Error; err != nil {
		return nil, eris.Wrapf(err, "store: rates of %d", locID)
	}
	return rows, nil
}

// Hours returns the operating hours of a location for dateID, or for the
// latest recorded date when dateID is 0.
func (s *gormStore) Hours(ctx context.Context, locID int64, dateID int) ([]model.OperatingHours, error) {
	var rows []model.OperatingHours
	if err := s.scheduleQuery(ctx, &model.OperatingHours{}, locID, dateID).Order("id").Find(&rows).Error; err != nil {
		return nil, eris.Wrapf(err, "store: operating hours of %d", locID)
	}
	return rows, nil
}

func (s *gormStore) scheduleQuery(ctx context.Context, m any, locID int64, dateID int) *gorm.DB {
	db := s.db.WithContext(ctx)
	q := db.Model(m).Where("loc_id = ?", locID)
	if dateID != 0 {
		return q.Where("date_id = ?", dateID)
	}
	latest := db.Model(m).Select("MAX(date_id)").Where("loc_id = ?", locID)
	return q.Where("date_id = (?)", latest)
}

func (s *gormStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	db := s.db.WithContext(ctx)
	for _, item := range []struct {
		model any
		dst   *int64
	}{
		{&model.Location{}, &c.Locations},
		{&model.Availability{}, &c.Availability},
		{&model.Rate{}, &c.Rates},
		{&model.OperatingHours{}, &c.Hours},
	} {
		if err := db.Model(item.model).Count(item.dst).Error; err != nil {
			return Counts{}, eris.Wrap(err, "store: count rows")
		}
	}
	return c, nil
}
