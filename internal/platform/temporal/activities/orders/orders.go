package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

const (
	// ReserveStockActivityName applies all conditional stock decrements of an order.
	ReserveStockActivityName = "orders.activities.ReserveStock"
	// ReleaseStockActivityName compensates ReserveStock.
	ReleaseStockActivityName = "orders.activities.ReleaseStock"
	// PersistOrderActivityName stores the order record.
	PersistOrderActivityName = "orders.activities.PersistOrder"
	// DeleteOrderActivityName compensates PersistOrder.
	DeleteOrderActivityName = "orders.activities.DeleteOrder"
	// ClearCartActivityName deletes the converted cart.
	ClearCartActivityName = "orders.activities.ClearCart"
)

// InsufficientStockErrorType tags the non-retryable application error raised on a shortfall.
const InsufficientStockErrorType = "InsufficientStock"

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	inventory orderports.Inventory
	orders    orderports.Orders
	carts     orderports.Carts
}

// NewActivities wires the orders collaborators into the Temporal activities bundle.
func NewActivities(inventory orderports.Inventory, orders orderports.Orders, carts orderports.Carts) *Activities {
	return &Activities{inventory: inventory, orders: orders, carts: carts}
}

// ReserveStock decrements stock for every line or for none.
func (a *Activities) ReserveStock(ctx context.Context, lines []orderdomain.StockLine) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		return errors.New("reserve stock activity not initialized")
	}
	logger.Info("ReserveStock activity started", "lines", len(lines))
	if err := a.inventory.Reserve(ctx, lines); err != nil {
		var stockErr *orderports.InsufficientStockError
		if errors.As(err, &stockErr) {
			logger.Info("ReserveStock rejected", "productId", stockErr.ProductID)
			return temporal.NewNonRetryableApplicationError(stockErr.Error(), InsufficientStockErrorType, err, stockErr.ProductID, stockErr.Title)
		}
		logger.Error("ReserveStock activity failed", "error", err)
		return err
	}
	logger.Info("ReserveStock activity completed")
	return nil
}

// ReleaseStock returns reserved quantities to stock.
func (a *Activities) ReleaseStock(ctx context.Context, lines []orderdomain.StockLine) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		return errors.New("release stock activity not initialized")
	}
	if err := a.inventory.Release(ctx, lines); err != nil {
		logger.Error("ReleaseStock activity failed", "error", err)
		return err
	}
	logger.Info("ReleaseStock activity completed", "lines", len(lines))
	return nil
}

// PersistOrder stores the order. A retry after a lost acknowledgement finds the row and succeeds.
func (a *Activities) PersistOrder(ctx context.Context, order *orderdomain.Order) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.orders == nil {
		return errors.New("persist order activity not initialized")
	}
	if order == nil {
		return temporal.NewNonRetryableApplicationError("order payload missing", "InvalidInput", nil)
	}
	if _, err := a.orders.GetByID(ctx, order.ID); err == nil {
		logger.Info("PersistOrder already applied", "orderId", order.ID)
		return nil
	} else if !errors.Is(err, orderports.ErrNotFound) {
		logger.Error("PersistOrder lookup failed", "orderId", order.ID, "error", err)
		return err
	}
	if _, err := a.orders.Save(ctx, order); err != nil {
		logger.Error("PersistOrder activity failed", "orderId", order.ID, "error", err)
		return err
	}
	logger.Info("PersistOrder activity completed", "orderId", order.ID)
	return nil
}

// DeleteOrder removes a persisted order; an absent order counts as deleted.
func (a *Activities) DeleteOrder(ctx context.Context, orderID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.orders == nil {
		return errors.New("delete order activity not initialized")
	}
	if err := a.orders.Delete(ctx, orderID); err != nil && !errors.Is(err, orderports.ErrNotFound) {
		logger.Error("DeleteOrder activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("DeleteOrder activity completed", "orderId", orderID)
	return nil
}

// ClearCart deletes the cart the order was created from.
func (a *Activities) ClearCart(ctx context.Context, cartID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.carts == nil {
		return errors.New("clear cart activity not initialized")
	}
	if err := a.carts.DeleteCart(ctx, cartID); err != nil {
		logger.Error("ClearCart activity failed", "cartId", cartID, "error", err)
		return err
	}
	logger.Info("ClearCart activity completed", "cartId", cartID)
	return nil
}
