package service

import (
	"github.com/shopease/shopease/internal/shop/model"
)

// Session is the state of one interactive user: who is logged in and what is in their cart.
// It isn't safe for concurrent use.
type Session struct {
	user *model.User
	cart *Cart
}

func NewSession(products ProductLookup) *Session {
	return &Session{cart: NewCart(products)}
}

func (s *Session) Login(user *model.User) {
	s.user = user
	s.cart.Clear()
}

// Logout forgets the user and empties the cart.
func (s *Session) Logout() {
	s.user = nil
	s.cart.Clear()
}

func (s *Session) User() *model.User {
	return s.user
}

func (s *Session) IsAuthenticated() bool {
	return s.user != nil
}

func (s *Session) Cart() *Cart {
	return s.cart
}
