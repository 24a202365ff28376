package repository

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"smmpanel/src/model"
	"smmpanel/src/security"
)

func TestOrderRepositoryQueries(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := (&OrderRepository{}).WithDB(mockDB)

	createdAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	orderRows := func(returned ...model.Order) *sqlmock.Rows {
		rows := sqlmock.NewRows([]string{"id", "upstream_order_id", "status", "created_at", "updated_at"})
		for _, order := range returned {
			rows.AddRow(order.ID, order.UpstreamOrderID, order.Status, order.CreatedAt, order.UpdatedAt)
		}
		return rows
	}

	t.Run("lists newest first", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" ORDER BY created_at DESC`)).
			WillReturnRows(orderRows(
				model.Order{ID: "b", Status: model.OrderStatusPending, CreatedAt: createdAt.Add(time.Hour)},
				model.Order{ID: "a", Status: model.OrderStatusCompleted, CreatedAt: createdAt},
			))

		orders, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "b", orders[0].ID)
		assert.Equal(t, model.OrderStatusCompleted, orders[1].Status)
	})

	t.Run("finds by local or upstream id", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1 OR upstream_order_id = $2`)).
			WithArgs("555", "555", 1).
			WillReturnRows(orderRows(model.Order{ID: "a", UpstreamOrderID: ptrString("555"), CreatedAt: createdAt}))

		order, err := repo.FindByIdentifier(context.Background(), " 555 ")
		require.NoError(t, err)
		assert.Equal(t, "a", order.ID)
		assert.Equal(t, "555", order.UpstreamID())
	})

	t.Run("maps missing rows to ErrOrderNotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1 OR upstream_order_id = $2`)).
			WithArgs("nope", "nope", 1).
			WillReturnRows(orderRows())

		_, err := repo.FindByIdentifier(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())

	_, err := repo.FindByIdentifier(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpsertAssignsIDAndInserts(t *testing.T) {
	repo := (&OrderRepository{}).WithDB(newSQLiteDB(t))
	ctx := context.Background()

	saved, err := repo.Upsert(ctx, model.Order{ServiceID: "1", Link: "http://x/y", Quantity: 100, Status: model.OrderStatusPlacing})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, model.OrderStatusPlacing, saved.Status)
	assert.False(t, saved.CreatedAt.IsZero())

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, saved.ID, orders[0].ID)
}

func TestUpsertIsIdempotentByUpstreamID(t *testing.T) {
	repo := (&OrderRepository{}).WithDB(newSQLiteDB(t))
	ctx := context.Background()

	first, err := repo.Upsert(ctx, model.Order{
		UpstreamOrderID: ptrString("555"),
		Link:            "http://x/y",
		Quantity:        100,
		Status:          model.OrderStatusPlacing,
	})
	require.NoError(t, err)

	// A different local id still resolves to the same record through the upstream id.
	second, err := repo.Upsert(ctx, model.Order{
		ID:              "other-id",
		UpstreamOrderID: ptrString("555"),
		Status:          model.OrderStatusInProgress,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.OrderStatusInProgress, second.Status)
	assert.Equal(t, "http://x/y", second.Link, "unspecified fields are retained")
	assert.Equal(t, int64(100), second.Quantity)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusInProgress, orders[0].Status)
}

func TestUpsertMatchesByIDWhenUpstreamIDIsNew(t *testing.T) {
	repo := (&OrderRepository{}).WithDB(newSQLiteDB(t))
	ctx := context.Background()

	placing, err := repo.Upsert(ctx, model.Order{Link: "l", Quantity: 10, Status: model.OrderStatusPlacing})
	require.NoError(t, err)

	placed, err := repo.Upsert(ctx, model.Order{ID: placing.ID, UpstreamOrderID: ptrString("777"), Status: model.OrderStatusInProgress})
	require.NoError(t, err)

	assert.Equal(t, placing.ID, placed.ID)
	assert.Equal(t, "777", placed.UpstreamID())
	assert.Equal(t, "l", placed.Link)
}

func TestUpsertConcurrentDifferentOrders(t *testing.T) {
	repo := (&OrderRepository{}).WithDB(newSQLiteDB(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Upsert(ctx, model.Order{UpstreamOrderID: ptrString(fmt.Sprintf("u-%d", i)), Status: model.OrderStatusPending})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 8)
}

func TestSettingsRepositoryMerge(t *testing.T) {
	repo := (&SettingsRepository{}).WithDB(newSQLiteDB(t))
	ctx := context.Background()

	empty, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.PanelKey)

	_, err = repo.Set(ctx, model.SettingsPatch{OtherSettings: map[string]any{"theme": "dark"}})
	require.NoError(t, err)

	saved, err := repo.Set(ctx, model.SettingsPatch{PanelKey: ptrString("0123456789abc")})
	require.NoError(t, err)
	assert.Equal(t, "0123456789abc", saved.PanelKey)
	assert.Equal(t, "dark", saved.OtherSettings["theme"])

	loaded, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abc", loaded.PanelKey)
	assert.Equal(t, "dark", loaded.OtherSettings["theme"])

	var count int64
	require.NoError(t, repo.db.Model(&model.Settings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSettingsRepositorySealsPanelKey(t *testing.T) {
	secrets, err := security.NewCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	db := newSQLiteDB(t)
	repo := (&SettingsRepository{}).WithDB(db).WithCipher(secrets)
	ctx := context.Background()

	saved, err := repo.Set(ctx, model.SettingsPatch{PanelKey: ptrString("0123456789abc")})
	require.NoError(t, err)
	assert.Equal(t, "0123456789abc", saved.PanelKey)

	var raw model.Settings
	require.NoError(t, db.First(&raw).Error)
	assert.True(t, security.IsEncrypted(raw.PanelKey))
	assert.NotContains(t, raw.PanelKey, "0123456789abc")

	loaded, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abc", loaded.PanelKey)

	_, err = (&SettingsRepository{}).WithDB(db).Get(ctx)
	assert.Error(t, err, "a sealed key cannot be read without the cipher")
}

func TestUserRepository(t *testing.T) {
	repo := (&GormUserRepository{}).WithDB(newSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.db.Create(&model.User{Email: "admin@example.com", Password: "old"}).Error)

	user, err := repo.GetUserByEmail(ctx, " Admin@Example.com ")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))

	reloaded, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reloaded.Password)

	_, err = repo.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestExceptionRepositoryCreate(t *testing.T) {
	repo := (&ExceptionRepository{}).WithDB(newSQLiteDB(t))

	require.NoError(t, repo.Create(context.Background(), &model.Exception{Service: "smmpanel", Module: "reconciler", Message: "boom"}))

	var count int64
	require.NoError(t, repo.db.Model(&model.Exception{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}

// newSQLiteDB opens a migrated in-memory database private to the test.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Order{}, &model.Settings{}, &model.Exception{}))
	return db
}

func ptrString(val string) *string {
	return &val
}
