package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/shopease/shopease/internal/common/database"
	"github.com/shopease/shopease/internal/common/metrics"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/configuration"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository/schema"
)

type PostgresStore struct {
	*SampleGenerator
	db          *pgxpool.Pool
	queries     *queries
	metrics     *metrics.Metrics
	retryPolicy database.RetryPolicy
}

func NewPostgresStore(db *pgxpool.Pool, generator *SampleGenerator, metrics *metrics.Metrics) *PostgresStore {
	return &PostgresStore{
		SampleGenerator: generator,
		db:              db,
		queries:         newQueries(postgresDialect),
		metrics:         metrics,
		retryPolicy:     database.DefaultRetryPolicy,
	}
}

// OpenPostgresStore connects to the database described by config and brings its schema up to date.
func OpenPostgresStore(
	ctx context.Context,
	config *configuration.ShopConfiguration,
	metrics *metrics.Metrics,
	log *log.Entry,
) (error, *PostgresStore, func()) {
	pool, err := database.OpenPgxPool(ctx, config.Postgres)
	if err != nil {
		return err, nil, func() {}
	}
	store := NewPostgresStore(pool, NewSampleGenerator(config.Sample, nil), metrics)
	if err := store.Setup(ctx); err != nil {
		pool.Close()
		return err, nil, func() {}
	}
	return nil, store, func() {
		log.Debug("closing postgres connection pool")
		pool.Close()
	}
}

func (s *PostgresStore) Setup(ctx context.Context) error {
	migrations, err := schema.PostgresMigrations()
	if err != nil {
		return err
	}
	return database.UpdateDatabase(ctx, s.db, migrations)
}

// BulkInsert copies the products into a temporary table and moves them into products with a single
// INSERT ... SELECT, all in one transaction. Ids already present are skipped and not counted.
func (s *PostgresStore) BulkInsert(ctx context.Context, products []*model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}
	var inserted int64
	err := database.WithRetry(ctx, s.retryPolicy, func() error {
		tmpTable := database.UniqueTableName("products")

		createTmp := func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, fmt.Sprintf(`
				CREATE TEMPORARY TABLE %s
				(
				  id          varchar(20),
				  name        varchar(255),
				  description text,
				  price       numeric(10, 2),
				  stock       integer,
				  category_id varchar(20),
				  created_at  timestamp with time zone
				) ON COMMIT DROP;`, pq.QuoteIdentifier(tmpTable)))
			if err != nil {
				s.metrics.RecordDBError(metrics.DBOperationCreateTempTable)
			}
			return err
		}

		insertTmp := func(tx pgx.Tx) error {
			_, err := tx.CopyFrom(ctx,
				pgx.Identifier{tmpTable},
				[]string{"id", "name", "description", "price", "stock", "category_id", "created_at"},
				pgx.CopyFromSlice(len(products), func(i int) ([]interface{}, error) {
					return []interface{}{
						products[i].ID,
						products[i].Name,
						products[i].Description,
						numericFromDecimal(products[i].Price),
						products[i].Stock,
						products[i].CategoryID,
						products[i].CreatedAt,
					}, nil
				}),
			)
			if err != nil {
				s.metrics.RecordDBError(metrics.DBOperationInsert)
			}
			return err
		}

		copyToDest := func(tx pgx.Tx) error {
			tag, err := tx.Exec(
				ctx,
				fmt.Sprintf(`
					INSERT INTO products (id, name, description, price, stock, category_id, created_at)
					SELECT id, name, description, price, stock, category_id, created_at FROM %s
					ON CONFLICT DO NOTHING`, pq.QuoteIdentifier(tmpTable)),
			)
			if err != nil {
				s.metrics.RecordDBError(metrics.DBOperationInsert)
				return err
			}
			inserted = tag.RowsAffected()
			return nil
		}

		return batchInsert(ctx, s.db, createTmp, insertTmp, copyToDest)
	})
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

func batchInsert(ctx context.Context, db *pgxpool.Pool, createTmp func(pgx.Tx) error,
	insertTmp func(pgx.Tx) error, copyToDest func(pgx.Tx) error,
) error {
	return db.BeginTxFunc(ctx, pgx.TxOptions{
		IsoLevel:       pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
		DeferrableMode: pgx.Deferrable,
	}, func(tx pgx.Tx) error {
		// Create a temporary table to hold the staging data
		err := createTmp(tx)
		if err != nil {
			return err
		}

		err = insertTmp(tx)
		if err != nil {
			return err
		}

		return copyToDest(tx)
	})
}

func (s *PostgresStore) PaginatedRead(ctx context.Context, page int, pageSize int) ([]*model.Product, error) {
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

func (s *PostgresStore) TotalCount(ctx context.Context) (int64, error) {
	q, err := s.queries.countProducts()
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.QueryRow(ctx, q.sql, q.args...).Scan(&count); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return 0, errors.WithStack(err)
	}
	return count, nil
}

func (s *PostgresStore) Truncate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "TRUNCATE TABLE products CASCADE")
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationTruncate)
		return errors.WithStack(err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Product, error) {
	q, err := s.queries.getProduct(id)
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(s.db.QueryRow(ctx, q.sql, q.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.WithStack(&shoperrors.ErrNotFound{Type: "product", Value: id})
	}
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	return p, nil
}

func (s *PostgresStore) All(ctx context.Context) ([]*model.Product, error) {
	q, err := s.queries.allProducts()
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *PostgresStore) Search(ctx context.Context, keyword string) ([]*model.Product, error) {
	q, err := s.queries.search(keyword)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *PostgresStore) SearchPaginated(ctx context.Context, keyword string, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.searchPaged(keyword, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *PostgresStore) ByCategory(ctx context.Context, categoryID string, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.byCategory(categoryID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *PostgresStore) ByPriceRange(ctx context.Context, min decimal.Decimal, max decimal.Decimal, page int, pageSize int) ([]*model.Product, error) {
	q, err := s.queries.byPriceRange(min, max, page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, q)
}

func (s *PostgresStore) Categories(ctx context.Context) ([]*model.Category, error) {
	q, err := s.queries.categories()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, q.sql, q.args...)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	categories := []*model.Category{}
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, errors.WithStack(err)
		}
		categories = append(categories, c)
	}
	return categories, errors.WithStack(rows.Err())
}

func (s *PostgresStore) Insert(ctx context.Context, product *model.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	q, err := s.queries.insertProduct(product)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, q.sql, q.args...)
	if shoperrors.IsUniqueViolation(err) {
		return errors.WithStack(&shoperrors.ErrAlreadyExists{Type: "product", Value: product.ID})
	}
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
		return errors.WithStack(err)
	}
	return nil
}

func (s *PostgresStore) UpdateStock(ctx context.Context, id string, stock int) error {
	q, err := s.queries.updateStock(id, stock)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, q.sql, q.args...)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationUpdate)
		return errors.WithStack(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.WithStack(&shoperrors.ErrNotFound{Type: "product", Value: id})
	}
	return nil
}

func (s *PostgresStore) BulkUpdateStock(ctx context.Context, ids []string, stocks []int) (int, error) {
	if len(ids) != len(stocks) {
		return 0, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "stocks",
			Value:   len(stocks),
			Message: fmt.Sprintf("expected one stock level for each of the %d products", len(ids)),
		})
	}
	updated := 0
	err := s.db.BeginTxFunc(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for i, id := range ids {
			q, err := s.queries.updateStock(id, stocks[i])
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, q.sql, q.args...)
			if err != nil {
				s.metrics.RecordDBError(metrics.DBOperationUpdate)
				return err
			}
			updated += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return updated, nil
}

func (s *PostgresStore) CreateIndexes(ctx context.Context) error {
	for _, ddl := range PerformanceIndexes() {
		if _, err := s.db.Exec(ctx, ddl); err != nil {
			return errors.Wrapf(err, "error executing %s", ddl)
		}
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	stmt, args, err := s.queries.insertUser(user).Returning("id").ToSQL()
	if err != nil {
		return err
	}
	err = s.db.QueryRow(ctx, stmt, args...).Scan(&user.ID)
	if shoperrors.IsUniqueViolation(err) {
		return errors.WithStack(&shoperrors.ErrAlreadyExists{Type: "user", Value: user.Username, Message: "Username already exists"})
	}
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
		return errors.WithStack(err)
	}
	return nil
}

func (s *PostgresStore) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	q, err := s.queries.userByUsername(username)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	err = s.db.QueryRow(ctx, q.sql, q.args...).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.WithStack(&shoperrors.ErrNotFound{Type: "user", Value: username})
	}
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	return u, nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, order *model.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	err := s.db.BeginTxFunc(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		for _, item := range order.Items {
			if err := s.decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		stmt, args, err := s.queries.insertOrder(order).Returning("id").ToSQL()
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, stmt, args...).Scan(&order.ID); err != nil {
			return errors.WithStack(err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			stmt, args, err := s.queries.insertOrderItem(order.ID, item).Returning("id").ToSQL()
			if err != nil {
				return err
			}
			if err := tx.QueryRow(ctx, stmt, args...).Scan(&item.ID); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationInsert)
	}
	return err
}

func (s *PostgresStore) decrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	q, err := s.queries.decrementStock(productID, quantity)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, q.sql, q.args...)
	if err != nil {
		return errors.WithStack(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	q, err = s.queries.stockOf(productID)
	if err != nil {
		return err
	}
	var available int
	err = tx.QueryRow(ctx, q.sql, q.args...).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.WithStack(&shoperrors.ErrNotFound{Type: "product", Value: productID})
	}
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(&shoperrors.ErrInsufficientStock{ProductID: productID, Requested: quantity, Available: available})
}

func (s *PostgresStore) OrdersForUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	q, err := s.queries.ordersForUser(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, q.sql, q.args...)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	for rows.Next() {
		o := &model.Order{}
		var total pgtype.Numeric
		if err := rows.Scan(&o.ID, &o.UserID, &total, &o.CreatedAt); err != nil {
			return nil, errors.WithStack(err)
		}
		o.TotalAmount = decimalFromNumeric(total)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := s.itemsForOrders(ctx, orders)
	if err != nil {
		return nil, err
	}
	attachItems(orders, items)
	return orders, nil
}

func (s *PostgresStore) itemsForOrders(ctx context.Context, orders []*model.Order) ([]model.OrderItem, error) {
	q, err := s.queries.itemsForOrders(orderIDs(orders))
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, q.sql, q.args...)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		item := model.OrderItem{}
		var price pgtype.Numeric
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &price); err != nil {
			return nil, errors.WithStack(err)
		}
		item.Price = decimalFromNumeric(price)
		items = append(items, item)
	}
	return items, errors.WithStack(rows.Err())
}

func (s *PostgresStore) queryProducts(ctx context.Context, q query) ([]*model.Product, error) {
	rows, err := s.db.Query(ctx, q.sql, q.args...)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, errors.WithStack(err)
	}
	return products, nil
}

// scanProduct reads the columns selected by productColumns.
func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	var price pgtype.Numeric
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.CategoryID, &p.CategoryName, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Price = decimalFromNumeric(price)
	return p, nil
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Status: pgtype.Present}
}

func decimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if n.Status != pgtype.Present || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
