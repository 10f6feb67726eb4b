package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/model"
)

type ProductLookup interface {
	Get(ctx context.Context, id string) (*model.Product, error)
}

type CartLine struct {
	Product  *model.Product
	Quantity int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart maps product ids to quantities. Lines are listed in the order products were first added.
type Cart struct {
	products   ProductLookup
	quantities map[string]int
	order      []string
}

func NewCart(products ProductLookup) *Cart {
	return &Cart{
		products:   products,
		quantities: map[string]int{},
		order:      []string{},
	}
}

// Add adds quantity units of a product, on top of any already in the cart.
func (c *Cart) Add(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "quantity",
			Value:   quantity,
			Message: "Quantity must be greater than 0.",
		})
	}
	product, err := c.products.Get(ctx, id)
	if err != nil {
		return err
	}
	total := c.quantities[id] + quantity
	if !product.InStock(total) {
		return errors.WithStack(&shoperrors.ErrInsufficientStock{
			ProductID: id,
			Requested: total,
			Available: product.Stock,
		})
	}
	c.set(id, total)
	return nil
}

// Update replaces the quantity of a product. A quantity of zero or less removes it.
func (c *Cart) Update(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		c.Remove(id)
		return nil
	}
	product, err := c.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if !product.InStock(quantity) {
		return errors.WithStack(&shoperrors.ErrInsufficientStock{
			ProductID: id,
			Requested: quantity,
			Available: product.Stock,
		})
	}
	c.set(id, quantity)
	return nil
}

// Remove returns false if the product wasn't in the cart.
func (c *Cart) Remove(id string) bool {
	if _, ok := c.quantities[id]; !ok {
		return false
	}
	delete(c.quantities, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return true
}

func (c *Cart) Quantity(id string) int {
	return c.quantities[id]
}

// Quantities returns a copy of the cart contents.
func (c *Cart) Quantities() map[string]int {
	result := make(map[string]int, len(c.quantities))
	for id, q := range c.quantities {
		result[id] = q
	}
	return result
}

// ProductIDs returns the ids in the cart in insertion order.
func (c *Cart) ProductIDs() []string {
	return slices.Clone(c.order)
}

// Items looks up every product in the cart. Products that no longer exist are skipped.
func (c *Cart) Items(ctx context.Context) ([]CartLine, error) {
	lines := make([]CartLine, 0, len(c.order))
	for _, id := range c.order {
		product, err := c.products.Get(ctx, id)
		var notFound *shoperrors.ErrNotFound
		if errors.As(err, &notFound) {
			continue
		} else if err != nil {
			return nil, err
		}
		lines = append(lines, CartLine{Product: product, Quantity: c.quantities[id]})
	}
	return lines, nil
}

func (c *Cart) Total(ctx context.Context) (decimal.Decimal, error) {
	lines, err := c.Items(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total, nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.quantities) == 0
}

func (c *Cart) Len() int {
	return len(c.quantities)
}

func (c *Cart) Clear() {
	c.quantities = map[string]int{}
	c.order = c.order[:0]
}

func (c *Cart) set(id string, quantity int) {
	if _, ok := c.quantities[id]; !ok {
		c.order = append(c.order, id)
	}
	c.quantities[id] = quantity
}
