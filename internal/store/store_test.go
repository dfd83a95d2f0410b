package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sfpark-collector/internal/db"
	"sfpark-collector/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore opens a private in-memory database with the collector schema.
func newSQLiteStore(t *testing.T, name string) (Store, *gorm.DB) {
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := NewGormStore(gormDB, 2)
	t.Cleanup(func() { _ = s.Close() })
	return s, gormDB
}

func ptr[T any](v T) *T { return &v }

func sampleBatch() model.Batch {
	return model.Batch{
		Locations:    []model.Location{{ID: 100, ParkType: ptr("OFF"), OSPID: ptr(int64(100)), Pts: ptr(1)}},
		Availability: []model.Availability{{LocID: 100, DateID: 20130704, Occ: ptr(3), Oper: ptr(10)}},
		Rates:        []model.Rate{{LocID: 100, DateID: 20130704, Beg: &model.TimeOfDay{Hour: 7}, Amount: ptr(2.5)}},
		Hours:        []model.OperatingHours{{LocID: 100, DateID: 20130704, FromDay: ptr("Monday")}},
	}
}

func TestGormStore_SaveBatch(t *testing.T) {
	insertLocation := regexp.QuoteMeta(`INSERT INTO "location"`)
	insertAvailability := regexp.QuoteMeta(`INSERT INTO "availability"`)
	insertRates := regexp.QuoteMeta(`INSERT INTO "rates"`)
	insertHours := regexp.QuoteMeta(`INSERT INTO "operating_hours"`)

	testCases := []struct {
		name             string
		batch            model.Batch
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      bool
		expectedOrphan   bool
	}{
		{
			name:  "All tables written in one transaction",
			batch: sampleBatch(),
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertLocation + `.*ON CONFLICT \("id"\) DO NOTHING`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(insertAvailability).
					WithArgs(int64(100), 20130704, Any{}, 3, 10).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectQuery(insertRates).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectQuery(insertHours).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
		},
		{
			name:  "Availability only, no dimension writes",
			batch: model.Batch{Availability: sampleBatch().Availability},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(insertAvailability).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
				mock.ExpectCommit()
			},
		},
		{
			name:  "Foreign key violation rolls back the whole cycle",
			batch: model.Batch{Availability: sampleBatch().Availability},
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(insertAvailability).
					WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_location_availability"})
				mock.ExpectRollback()
			},
			expectedErr:    true,
			expectedOrphan: true,
		},
		{
			name:  "Late failure discards the earlier inserts",
			batch: sampleBatch(),
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertLocation).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(insertAvailability).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectQuery(insertRates).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectQuery(insertHours).WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			expectedErr: true,
		},
		{
			name:  "Begin failure",
			batch: sampleBatch(),
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB, 0)

			tc.mockExpectations(mock)

			err := store.SaveBatch(context.Background(), tc.batch)

			if tc.expectedErr {
				assert.Error(t, err)
				assert.Equal(t, tc.expectedOrphan, errors.Is(err, ErrOrphanFact))
				assert.Equal(t, tc.expectedOrphan, eris.Is(err, ErrOrphanFact))
				if tc.expectedOrphan {
					assert.Contains(t, err.Error(), "fk_location_availability")
				}
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_LocationIDs(t *testing.T) {
	gormDB, mock := newTestDB(t)
	store := NewGormStore(gormDB, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "location"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(501))

	ids, err := store.LocationIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 501}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, gormDB := newSQLiteStore(t, "roundtrip")

	day1 := sampleBatch()
	day1.Locations = append(day1.Locations, model.Location{ID: 501}, model.Location{ID: 502})
	require.NoError(t, s.SaveBatch(ctx, day1))

	// The location insert is idempotent; only the new rows land.
	day2 := model.Batch{
		Locations: []model.Location{{ID: 100, Name: ptr("renamed")}},
		Availability: []model.Availability{
			{LocID: 100, DateID: 20130705, UpdatedTimestamp: time.Date(2013, 7, 5, 8, 0, 0, 0, time.UTC), Occ: ptr(4)},
			{LocID: 100, DateID: 20130705, UpdatedTimestamp: time.Date(2013, 7, 5, 9, 0, 0, 0, time.UTC), Occ: ptr(6)},
		},
		Rates: []model.Rate{
			{LocID: 100, DateID: 20130705, Beg: &model.TimeOfDay{Hour: 9}, End: &model.TimeOfDay{Hour: 17, Minute: 30}},
		},
	}
	require.NoError(t, s.SaveBatch(ctx, day2))

	ids, err := s.LocationIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 501, 502}, ids)

	loc, err := s.GetLocation(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, loc.Name, "locations are never updated")
	assert.Equal(t, "OFF", *loc.ParkType)

	_, err = s.GetLocation(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := s.ListLocations(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(501), page[0].ID)

	avl, err := s.Availability(ctx, 100, 20130705, 10)
	require.NoError(t, err)
	require.Len(t, avl, 2)
	assert.Equal(t, 6, *avl[0].Occ, "newest first")

	avl, err = s.Availability(ctx, 100, 0, 10)
	require.NoError(t, err)
	assert.Len(t, avl, 3)

	rates, err := s.Rates(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, rates, 1, "latest day only")
	assert.Equal(t, model.TimeOfDay{Hour: 17, Minute: 30}, *rates[0].End)

	rates, err = s.Rates(ctx, 100, 20130704)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, model.TimeOfDay{Hour: 7}, *rates[0].Beg)

	// Clock values are stored as plain text, not coerced into timestamps.
	var stored string
	require.NoError(t, gormDB.Raw(`SELECT "end" FROM rates WHERE date_id = ?`, 20130705).Scan(&stored).Error)
	assert.Equal(t, "17:30:00", stored)

	hours, err := s.Hours(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.Equal(t, "Monday", *hours[0].FromDay)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Locations: 3, Availability: 3, Rates: 2, Hours: 1}, counts)

}

func TestGormStore_SQLiteRollback(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t, "rollback")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertLocations(sampleBatch().Locations))
	require.NoError(t, tx.AppendAvailability(sampleBatch().Availability))
	require.NoError(t, tx.Rollback())

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
