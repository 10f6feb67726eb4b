package shopctl

import (
	"context"
)

func (a *App) Register(ctx context.Context, username string, email string, password string) error {
	return a.withShop(ctx, func(s *shop) error {
		user, err := s.auth.Register(ctx, username, email, password)
		if err != nil {
			return err
		}
		view{a.Out}.success("Registered %s as %s", user.Username, user.Code())
		return nil
	})
}

// Login checks the credentials and lists the user's orders.
func (a *App) Login(ctx context.Context, username string, password string) error {
	return a.withShop(ctx, func(s *shop) error {
		user, err := s.auth.Login(ctx, username, password)
		if err != nil {
			return err
		}
		v := view{a.Out}
		v.success("Welcome back, %s!", user.Username)
		orders, err := s.orders.History(ctx, user.ID)
		if err != nil {
			return err
		}
		v.orders(orders)
		return nil
	})
}
