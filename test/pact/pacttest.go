//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "shop-api"
	ConsumerName = "storefront"

	StateProductsInStock = "products p-shirt and p-hat are in stock"
	StateOrderExists     = "order o-301 exists for user pact-user"
	StateOrderMissing    = "no order with id o-404"
)

const (
	ExistingOrderID = "o-301"
	MissingOrderID  = "o-404"
	PactUserID      = "pact-user"
	PactCartID      = "cart-pact"

	ShirtProductID = "p-shirt"
	ShirtTitle     = "Pact Shirt"
	ShirtStock     = 10
	HatProductID   = "p-hat"
	HatTitle       = "Pact Hat"
	HatStock       = 4
)

const exampleOrderDate = "2024-06-12T10:00:00Z"

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreateOrderPayload is the checkout request used by the consumer.
func ExampleCreateOrderPayload() map[string]any {
	return map[string]any{
		"userId": PactUserID,
		"cartId": PactCartID,
		"cartItems": []map[string]any{
			{"productId": ShirtProductID, "title": ShirtTitle, "image": "https://example.pact/shirt.png", "price": 25, "quantity": 2},
			{"productId": HatProductID, "title": HatTitle, "image": "https://example.pact/hat.png", "price": 10, "quantity": 1},
		},
		"addressInfo":   map[string]any{"address": "1 Pact Street", "city": "Gdansk", "pincode": "80-001", "phone": "+48111222333"},
		"orderStatus":   "pending",
		"paymentMethod": "cod",
		"paymentStatus": "pending",
		"totalAmount":   60,
		"orderDate":     exampleOrderDate,
	}
}

// ExampleOrderDate is the order date of the seeded order.
func ExampleOrderDate() string { return exampleOrderDate }

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
