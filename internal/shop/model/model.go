package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	CategoryID  string          `json:"categoryId" db:"category_id"`
	// Only populated by queries that join on categories.
	CategoryName string    `json:"categoryName,omitempty" db:"category_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (p *Product) InStock(quantity int) bool {
	return quantity <= p.Stock
}

type Category struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
}

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) Code() string {
	return UserCode(u.ID)
}

type Order struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"userId" db:"user_id"`
	TotalAmount decimal.Decimal `json:"totalAmount" db:"total_amount"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	Items       []OrderItem     `json:"items" db:"-"`
}

func (o *Order) Code() string {
	return OrderCode(o.ID)
}

// TotalItems is the number of units across all lines of the order.
func (o *Order) TotalItems() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

type OrderItem struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"orderId" db:"order_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	ProductName string          `json:"productName,omitempty" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductID is the id given to the generated product at 1-based position pos.
func ProductID(pos int) string {
	return fmt.Sprintf("P%09d", pos)
}

// UserCode, OrderCode and OrderItemCode format database ids for display.
func UserCode(id int64) string {
	return fmt.Sprintf("USR%03d", id)
}

func OrderCode(id int64) string {
	return fmt.Sprintf("O%03d", id)
}

func OrderItemCode(id int64) string {
	return fmt.Sprintf("OI%03d", id)
}
