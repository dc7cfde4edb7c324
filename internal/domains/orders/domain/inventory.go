package domain

import "sort"

// Product is the stock-bearing catalog entry referenced by line items.
type Product struct {
	ID         string
	Title      string
	TotalStock int
}

// CanFulfil reports whether the current stock covers the quantity.
func (p *Product) CanFulfil(quantity int) bool {
	return p != nil && p.TotalStock >= quantity
}

// Cart is the pending basket an order is created from.
type Cart struct {
	ID     string
	UserID string
	Items  []LineItem
}

// StockLine is one stock movement for a product.
type StockLine struct {
	ProductID string
	Title     string
	Quantity  int
}

// StockLines derives stock movements from line items in deterministic product order.
// Lines for the same product keep their relative order.
func StockLines(items []LineItem) []StockLine {
	lines := make([]StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, StockLine{ProductID: item.ProductID, Title: item.Title, Quantity: item.Quantity})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}
