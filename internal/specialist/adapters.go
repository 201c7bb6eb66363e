// Package specialist implements the five concrete clothing-retail agents
// (reception, sales, order, knowledge, styling) behind agentapi.Agent.
package specialist

import (
	"context"
	"fmt"
)

// Product is a single catalog hit returned by ProductSearch.
type Product struct {
	ID    string
	Name  string
	Price float64
}

// ProductSearch is the narrow backend interface sales/styling consult.
// Per spec §6 it is out of core scope; the only contractual requirement is
// that specialists remain callable even when it fails.
type ProductSearch interface {
	Search(ctx context.Context, query string) ([]Product, error)
}

// OrderStatus is a single order-lookup hit returned by OrderLookup.
type OrderStatus struct {
	OrderID string
	Status  string
}

// OrderLookup is the narrow backend interface the order agent consults.
type OrderLookup interface {
	Lookup(ctx context.Context, orderID string) (OrderStatus, error)
}

// StubProductSearch is a canned ProductSearch: ingestion and a real catalog
// are explicitly out of scope (§1, §9.1), so this always returns a fixed,
// small result set.
type StubProductSearch struct{}

func (StubProductSearch) Search(ctx context.Context, query string) ([]Product, error) {
	return []Product{
		{ID: "sku-1001", Name: "经典白色衬衫", Price: 199.0},
		{ID: "sku-1002", Name: "修身牛仔裤", Price: 259.0},
	}, nil
}

// StubOrderLookup is a canned OrderLookup: a real order backend is out of
// scope; it always returns a fixed in-transit status.
type StubOrderLookup struct{}

func (StubOrderLookup) Lookup(ctx context.Context, orderID string) (OrderStatus, error) {
	return OrderStatus{OrderID: orderID, Status: fmt.Sprintf("订单 %s 正在配送中", orderID)}, nil
}
