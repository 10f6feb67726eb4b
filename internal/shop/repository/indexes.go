package repository

import "fmt"

type index struct {
	name       string
	expression string
}

var performanceIndexes = []index{
	{name: "idx_products_name", expression: "name"},
	{name: "idx_products_category", expression: "category_id"},
	{name: "idx_products_price", expression: "price"},
	{name: "idx_products_created_at", expression: "created_at"},
	{name: "idx_products_name_lower", expression: "LOWER(name)"},
	{name: "idx_products_stock", expression: "stock"},
}

// PerformanceIndexes returns the DDL of the indexes that speed up catalogue queries on large
// product tables. The statements are valid for both postgres and sqlite.
func PerformanceIndexes() []string {
	ddl := make([]string, len(performanceIndexes))
	for i, idx := range performanceIndexes {
		ddl[i] = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON products (%s)", idx.name, idx.expression)
	}
	return ddl
}
