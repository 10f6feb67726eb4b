package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/shopease/shopease/internal/common/database"
	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository/schema"
)

const sqliteMaxInList = 500

// SQLiteStore keeps the shop in a single sqlite file. Writes are serialised by lock; sqlite only
// allows one writer at a time and would otherwise fail concurrent batches with SQLITE_BUSY.
type SQLiteStore struct {
	*SampleGenerator
	db      *sql.DB
	goquDb  *goqu.Database
	queries *queries
	metrics *metrics.Metrics
	lock    sync.RWMutex
}

func NewSQLiteStore(config *configuration.ShopConfiguration, metrics *metrics.Metrics, log *log.Entry) (error, *SQLiteStore, func()) {
	db, err := database.OpenSqlite(config.DatabasePath)
	if err != nil {
		return err, nil, func() {}
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{
		SampleGenerator: NewSampleGenerator(config.Sample, nil),
		db:              db,
		goquDb:          goqu.New(sqliteDialect, db),
		queries:         newQueries(sqliteDialect),
		metrics:         metrics,
	}
	return nil, store, func() {
		util.CloseResource(log, "database", db)
	}
}

// Setup switches the database to WAL mode and applies outstanding migrations.
func (s *SQLiteStore) Setup(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return errors.WithStack(err)
	}
	migrations, err := schema.SqliteMigrations()
	if err != nil {
		return err
	}
	return database.UpdateSqliteDatabase(ctx, s.db, migrations)
}

// BulkInsert writes the products one statement at a time inside a single transaction; a batch of
// 10,000 rows would exceed sqlite's limit on bound parameters as one multi-row insert.
// Ids already present are skipped and not counted.
func (s *SQLiteStore) BulkInsert(ctx context.Context, products []*model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range products {
			q, err := s.queries.insertProductIgnoringConflicts(p)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, q.sql, q.args...)
			if err != nil {
				return errors.Wrapf(err, "error inserting product %s", p.ID)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.WithStack(err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
		return 0, err
	}
	return inserted, nil
}

func (s *SQLiteStore) PaginatedRead(ctx context.Context, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.pagedProducts(page, pageSize)
	if err != nil {
		return nil, err
	}
	products, err := s.queryProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRowsRead(len(products))
	return products, nil
}

func (s *SQLiteStore) TotalCount(ctx context.Context) (int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	q, err := s.queries.countProducts()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, q.sql, q.args...).Scan(&count); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// Truncate deletes order lines before products; sqlite has no TRUNCATE ... CASCADE.
func (s *SQLiteStore) Truncate(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM order_items"); err != nil {
			return errors.WithStack(err)
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM products")
		return errors.WithStack(err)
	})
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationTruncate)
	}
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Product, error) {
	q, err := s.queries.getProduct(id)
	if err != nil {
		return nil, err
	}
	products, err := s.queryProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, errors.WithStack(&shoperrors.ErrNotFound{Type: "product", Value: id})
	}
	return products[0], nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]*model.Product, error) {
	q, err := s.queries.allProducts()
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *SQLiteStore) Search(ctx context.Context, keyword string) ([]*model.Product, error) {
	q, err := s.queries.search(keyword)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *SQLiteStore) SearchPaginated(ctx context.Context, keyword string, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.searchPaged(keyword, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *SQLiteStore) ByCategory(ctx context.Context, categoryID string, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.byCategory(categoryID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *SQLiteStore) ByPriceRange(ctx context.Context, min decimal.Decimal, max decimal.Decimal, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.byPriceRange(min, max, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *SQLiteStore) Categories(ctx context.Context) ([]*model.Category, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	q, err := s.queries.categories()
	if err != nil {
		return nil, err
	}
	categories := []*model.Category{}
	if err := s.goquDb.ScanStructsContext(ctx, &categories, q.sql, q.args...); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	return categories, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, product *model.Product) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	q, err := s.queries.insertProduct(product)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q.sql, q.args...)
	if isUniqueViolation(err) {
		return errors.WithStack(&shoperrors.ErrAlreadyExists{Type: "product", Value: product.ID})
	}
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
		return errors.WithStack(err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStock(ctx context.Context, id string, stock int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	q, err := s.queries.updateStock(id, stock)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, q.sql, q.args...)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationUpdate)
		return errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errors.WithStack(&shoperrors.ErrNotFound{Type: "product", Value: id})
	}
	return nil
}

func (s *SQLiteStore) BulkUpdateStock(ctx context.Context, ids []string, stocks []int) (int, error) {
	if len(ids) != len(stocks) {
		return 0, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "stocks",
			Value:   len(stocks),
			Message: fmt.Sprintf("expected one stock level for each of the %d products", len(ids)),
		})
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	updated := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			q, err := s.queries.updateStock(id, stocks[i])
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, q.sql, q.args...)
			if err != nil {
				return errors.WithStack(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return errors.WithStack(err)
			}
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationUpdate)
		return 0, err
	}
	return updated, nil
}

func (s *SQLiteStore) CreateIndexes(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, ddl := range PerformanceIndexes() {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return errors.Wrapf(err, "error executing %s", ddl)
		}
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *model.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	stmt, args, err := s.queries.insertUser(user).ToSQL()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if isUniqueViolation(err) {
		return errors.WithStack(&shoperrors.ErrAlreadyExists{Type: "user", Value: user.Username, Message: "Username already exists"})
	}
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
		return errors.WithStack(err)
	}
	user.ID, err = res.LastInsertId()
	return errors.WithStack(err)
}

func (s *SQLiteStore) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	q, err := s.queries.userByUsername(username)
	if err != nil {
		return nil, err
	}
	users := []*model.User{}
	if err := s.goquDb.ScanStructsContext(ctx, &users, q.sql, q.args...); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	if len(users) == 0 {
		return nil, errors.WithStack(&shoperrors.ErrNotFound{Type: "user", Value: username})
	}
	return users[0], nil
}

func (s *SQLiteStore) CreateOrder(ctx context.Context, order *model.Order) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range order.Items {
			if err := s.decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		orderID, err := insertReturningID(ctx, tx, s.queries.insertOrder(order))
		if err != nil {
			return err
		}
		order.ID = orderID

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = orderID
			item.ID, err = insertReturningID(ctx, tx, s.queries.insertOrderItem(orderID, item))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
	}
	return err
}

func (s *SQLiteStore) decrementStock(ctx context.Context, tx *sql.Tx, productID string, quantity int) error {
	q, err := s.queries.decrementStock(productID, quantity)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, q.sql, q.args...)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.WithStack(err)
	} else if n > 0 {
		return nil
	}

	q, err = s.queries.stockOf(productID)
	if err != nil {
		return err
	}
	var available int
	err = tx.QueryRowContext(ctx, q.sql, q.args...).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.WithStack(&shoperrors.ErrNotFound{Type: "product", Value: productID})
	}
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(&shoperrors.ErrInsufficientStock{ProductID: productID, Requested: quantity, Available: available})
}

func (s *SQLiteStore) OrdersForUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	q, err := s.queries.ordersForUser(userID)
	if err != nil {
		return nil, err
	}
	orders := []*model.Order{}
	if err := s.goquDb.ScanStructsContext(ctx, &orders, q.sql, q.args...); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	// Each order id is a bound parameter.
	items := []model.OrderItem{}
	for _, ids := range util.Batch(orderIDs(orders), sqliteMaxInList) {
		q, err = s.queries.itemsForOrders(ids)
		if err != nil {
			return nil, err
		}
		batch := []model.OrderItem{}
		if err := s.goquDb.ScanStructsContext(ctx, &batch, q.sql, q.args...); err != nil {
			s.metrics.RecordDBError(metrics.DBOperationRead)
			return nil, errors.WithStack(err)
		}
		items = append(items, batch...)
	}
	attachItems(orders, items)
	return orders, nil
}

func (s *SQLiteStore) queryProducts(ctx context.Context, q query) ([]*model.Product, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	products := []*model.Product{}
	if err := s.goquDb.ScanStructsContext(ctx, &products, q.sql, q.args...); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	return products, nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warnf("error rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.WithStack(tx.Commit())
}

func insertReturningID(ctx context.Context, tx *sql.Tx, ds *goqu.InsertDataset) (int64, error) {
	stmt, args, err := ds.ToSQL()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	id, err := res.LastInsertId()
	return id, errors.WithStack(err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Without extended result codes only the message tells constraint kinds apart.
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
