package service

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/shopease/shopease/internal/common/logging"
	"github.com/shopease/shopease/internal/common/shoperrors"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/repository"
)

type OrderService struct {
	store    repository.OrderStore
	products *ProductService
}

func NewOrderService(store repository.OrderStore, products *ProductService) *OrderService {
	return &OrderService{store: store, products: products}
}

// Checkout turns the cart of session into an order. Every line is checked against the current stock
// first and all problems are reported together, as a *multierror.Error. On success the cart is emptied.
func (s *OrderService) Checkout(ctx context.Context, session *Session) (*model.Order, error) {
	if !session.IsAuthenticated() {
		return nil, errors.WithStack(&shoperrors.ErrUnauthenticated{Message: "You must be logged in to check out."})
	}
	cart := session.Cart()
	if cart.IsEmpty() {
		return nil, errors.WithStack(&shoperrors.ErrInvalidArgument{
			Name:    "cart",
			Value:   0,
			Message: "Cart is empty.",
		})
	}

	ids := cart.ProductIDs()
	// Validate against the database, not against whatever was cached when the cart was filled.
	s.products.Forget(ids...)

	var result *multierror.Error
	order := &model.Order{
		UserID:      session.User().ID,
		TotalAmount: decimal.Zero,
		Items:       make([]model.OrderItem, 0, len(ids)),
	}
	for _, id := range ids {
		quantity := cart.Quantity(id)
		product, err := s.products.Get(ctx, id)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if !product.InStock(quantity) {
			result = multierror.Append(result, errors.WithStack(&shoperrors.ErrInsufficientStock{
				ProductID: id,
				Requested: quantity,
				Available: product.Stock,
			}))
			continue
		}
		item := model.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    quantity,
			Price:       product.Price,
		}
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
		order.Items = append(order.Items, item)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	err := s.store.CreateOrder(ctx, order)
	// Stock changed, or may have if the write failed part way.
	s.products.Forget(ids...)
	if err != nil {
		return nil, err
	}
	cart.Clear()

	logging.ForComponent("orders").
		WithField("user", session.User().Code()).
		Infof("Created order %s with %d items totalling %s", order.Code(), order.TotalItems(), order.TotalAmount.StringFixed(2))
	return order, nil
}

// History returns the orders of a user, newest first.
func (s *OrderService) History(ctx context.Context, userID int64) ([]*model.Order, error) {
	return s.store.OrdersForUser(ctx, userID)
}
