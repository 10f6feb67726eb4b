package repository

import "github.com/shopease/shopease/internal/shop/model"

func orderIDs(orders []*model.Order) []int64 {
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

// attachItems appends every item to the order it belongs to, keeping the order of items.
func attachItems(orders []*model.Order, items []model.OrderItem) {
	byID := make(map[int64]*model.Order, len(orders))
	for _, o := range orders {
		o.Items = []model.OrderItem{}
		byID[o.ID] = o
	}
	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
}
