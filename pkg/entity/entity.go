// Package entity names the seven source entities and the warehouse tables derived from them.
package entity

import (
	"github.com/pkg/errors"
)

var ErrUnknownEntity = errors.New("unknown entity")

type Name string

const (
	Payments   Name = "payments"
	Feedbacks  Name = "feedbacks"
	Products   Name = "products"
	Sellers    Name = "sellers"
	OrderItems Name = "order_items"
	Users      Name = "users"
	Orders     Name = "orders"
)

const FactOrderItems = "fact_order_items"

// All lists the entities in the order they are transformed. Orders come last because they read
// the transformed feedbacks.
var All = []Name{Payments, Feedbacks, Products, Sellers, OrderItems, Users, Orders}

func (n Name) String() string {
	return string(n)
}

func (n Name) RawTable() string {
	return string(n)
}

func (n Name) TransformedTable() string {
	return "transformed_" + string(n)
}
