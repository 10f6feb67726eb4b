package repository

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"

	"github.com/shopease/shopease/internal/shop/model"
)

const (
	postgresDialect = "postgres"
	sqliteDialect   = "sqlite3"
)

var (
	// Tables
	productsTable   = goqu.T("products").As("p")
	categoriesTable = goqu.T("categories").As("c")
	orderItemsTable = goqu.T("order_items").As("oi")

	// Columns: products table
	product_id          = goqu.I("p.id")
	product_name        = goqu.I("p.name")
	product_description = goqu.I("p.description")
	product_price       = goqu.I("p.price")
	product_stock       = goqu.I("p.stock")
	product_categoryId  = goqu.I("p.category_id")
	product_createdAt   = goqu.I("p.created_at")

	// Columns: categories table
	category_id          = goqu.I("c.id")
	category_name        = goqu.I("c.name")
	category_description = goqu.I("c.description")

	// Columns: order_items table
	orderItem_id        = goqu.I("oi.id")
	orderItem_orderId   = goqu.I("oi.order_id")
	orderItem_productId = goqu.I("oi.product_id")
	orderItem_quantity  = goqu.I("oi.quantity")
	orderItem_price     = goqu.I("oi.price")
)

// queries builds the SQL shared by the postgres and sqlite stores. Every statement is prepared, so
// values are never interpolated into the SQL text.
type queries struct {
	dialect goqu.DialectWrapper
}

func newQueries(dialect string) *queries {
	return &queries{dialect: goqu.Dialect(dialect)}
}

type query struct {
	sql  string
	args []interface{}
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func toQuery(ds sqlBuilder) (query, error) {
	sql, args, err := ds.ToSQL()
	return query{sql: sql, args: args}, err
}

// productColumns are named after the db tags of model.Product.
func productColumns() []interface{} {
	return []interface{}{
		product_id,
		product_name,
		goqu.COALESCE(product_description, "").As("description"),
		product_price,
		product_stock,
		goqu.COALESCE(product_categoryId, "").As("category_id"),
		goqu.COALESCE(category_name, "").As("category_name"),
		product_createdAt,
	}
}

func (q *queries) productsWithCategory() *goqu.SelectDataset {
	return q.dialect.
		From(productsTable).
		LeftJoin(categoriesTable, goqu.On(product_categoryId.Eq(category_id))).
		Select(productColumns()...).
		Prepared(true)
}

func paged(ds *goqu.SelectDataset, page int, pageSize int) *goqu.SelectDataset {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return ds.Limit(uint(pageSize)).Offset(uint((page - 1) * pageSize))
}

func searchCondition(keyword string) exp.ExpressionList {
	pattern := "%" + strings.ToLower(keyword) + "%"
	return goqu.Or(
		goqu.Func("LOWER", product_name).Like(pattern),
		goqu.Func("LOWER", category_name).Like(pattern),
	)
}

func (q *queries) getProduct(id string) (query, error) {
	return toQuery(q.productsWithCategory().Where(product_id.Eq(id)))
}

func (q *queries) allProducts() (query, error) {
	return toQuery(q.productsWithCategory().Order(category_name.Asc(), product_name.Asc()))
}

func (q *queries) pagedProducts(page int, pageSize int) (query, error) {
	return toQuery(paged(q.productsWithCategory().Order(product_id.Asc()), page, pageSize))
}

func (q *queries) search(keyword string) (query, error) {
	return toQuery(q.productsWithCategory().
		Where(searchCondition(keyword)).
		Order(category_name.Asc(), product_name.Asc()))
}

func (q *queries) searchPaged(keyword string, page int, pageSize int) (query, error) {
	ds := q.productsWithCategory().
		Where(searchCondition(keyword)).
		Order(product_id.Asc())
	return toQuery(paged(ds, page, pageSize))
}

func (q *queries) byCategory(categoryID string, page int, pageSize int) (query, error) {
	ds := q.productsWithCategory().
		Where(product_categoryId.Eq(categoryID)).
		Order(product_id.Asc())
	return toQuery(paged(ds, page, pageSize))
}

func (q *queries) byPriceRange(min decimal.Decimal, max decimal.Decimal, page int, pageSize int) (query, error) {
	ds := q.productsWithCategory().
		Where(product_price.Between(goqu.Range(min.String(), max.String()))).
		Order(product_price.Asc(), product_id.Asc())
	return toQuery(paged(ds, page, pageSize))
}

func (q *queries) countProducts() (query, error) {
	return toQuery(q.dialect.From("products").Select(goqu.COUNT("*")).Prepared(true))
}

func (q *queries) categories() (query, error) {
	return toQuery(q.dialect.
		From(categoriesTable).
		Select(category_id, category_name, goqu.COALESCE(category_description, "").As("description")).
		Order(category_id.Asc()).
		Prepared(true))
}

func productRecord(p *model.Product) goqu.Record {
	return goqu.Record{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.String(),
		"stock":       p.Stock,
		"category_id": p.CategoryID,
		"created_at":  p.CreatedAt,
	}
}

// insertProduct fails on a duplicate id.
func (q *queries) insertProduct(p *model.Product) (query, error) {
	return toQuery(q.dialect.Insert("products").Rows(productRecord(p)).Prepared(true))
}

// insertProductIgnoringConflicts silently skips a duplicate id; used by bulk loads so that
// re-running a seed doesn't fail on rows that are already there.
func (q *queries) insertProductIgnoringConflicts(p *model.Product) (query, error) {
	return toQuery(q.dialect.Insert("products").Rows(productRecord(p)).OnConflict(goqu.DoNothing()).Prepared(true))
}

func (q *queries) updateStock(id string, stock int) (query, error) {
	return toQuery(q.dialect.
		Update("products").
		Set(goqu.Record{"stock": stock}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
}

// decrementStock only matches if there are at least quantity units left.
func (q *queries) decrementStock(id string, quantity int) (query, error) {
	return toQuery(q.dialect.
		Update("products").
		Set(goqu.Record{"stock": goqu.L("stock - ?", quantity)}).
		Where(goqu.C("id").Eq(id), goqu.C("stock").Gte(quantity)).
		Prepared(true))
}

func (q *queries) stockOf(id string) (query, error) {
	return toQuery(q.dialect.From("products").Select("stock").Where(goqu.C("id").Eq(id)).Prepared(true))
}

func (q *queries) insertUser(u *model.User) *goqu.InsertDataset {
	return q.dialect.Insert("users").Rows(goqu.Record{
		"username":      u.Username,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"created_at":    u.CreatedAt,
	}).Prepared(true)
}

func (q *queries) userByUsername(username string) (query, error) {
	return toQuery(q.dialect.
		From("users").
		Select("id", "username", "email", "password_hash", "created_at").
		Where(goqu.C("username").Eq(username)).
		Prepared(true))
}

func (q *queries) insertOrder(o *model.Order) *goqu.InsertDataset {
	return q.dialect.Insert("orders").Rows(goqu.Record{
		"user_id":      o.UserID,
		"total_amount": o.TotalAmount.String(),
		"created_at":   o.CreatedAt,
	}).Prepared(true)
}

func (q *queries) insertOrderItem(orderID int64, item *model.OrderItem) *goqu.InsertDataset {
	return q.dialect.Insert("order_items").Rows(goqu.Record{
		"order_id":   orderID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
		"price":      item.Price.String(),
	}).Prepared(true)
}

func (q *queries) ordersForUser(userID int64) (query, error) {
	return toQuery(q.dialect.
		From("orders").
		Select("id", "user_id", "total_amount", "created_at").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Prepared(true))
}

func (q *queries) itemsForOrders(orderIDs []int64) (query, error) {
	return toQuery(q.dialect.
		From(orderItemsTable).
		LeftJoin(productsTable, goqu.On(orderItem_productId.Eq(product_id))).
		Select(
			orderItem_id,
			orderItem_orderId,
			orderItem_productId,
			goqu.COALESCE(product_name, "").As("product_name"),
			orderItem_quantity,
			orderItem_price).
		Where(orderItem_orderId.In(orderIDs)).
		Order(orderItem_id.Asc()).
		Prepared(true))
}
