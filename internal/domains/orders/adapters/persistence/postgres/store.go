package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
)

var _ ports.Store = (*Store)(nil)

// Store persists orders, products and carts in PostgreSQL using GORM.
// Schema is owned by platform/migrations.
type Store struct {
	db *gorm.DB
}

// NewStore wires a PostgreSQL-backed store. Caller manages DB lifecycle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

type lineItemRecord struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderRecord struct {
	ID              string           `gorm:"primaryKey;column:id;size:64"`
	UserID          string           `gorm:"column:user_id;size:64;index:idx_orders_user_date"`
	CartID          *string          `gorm:"column:cart_id;size:64"`
	Items           []lineItemRecord `gorm:"column:items;type:jsonb;serializer:json"`
	ProductIDs      pq.StringArray   `gorm:"column:product_ids;type:text[]"`
	Address         map[string]any   `gorm:"column:address;type:jsonb;serializer:json"`
	OrderStatus     string           `gorm:"column:order_status;type:varchar(32);index"`
	PaymentMethod   string           `gorm:"column:payment_method;size:64"`
	PaymentStatus   string           `gorm:"column:payment_status;type:varchar(32)"`
	TotalAmount     decimal.Decimal  `gorm:"column:total_amount;type:numeric(14,2)"`
	OrderDate       time.Time        `gorm:"column:order_date;index:idx_orders_user_date"`
	OrderUpdateDate time.Time        `gorm:"column:order_update_date"`
	CreatedAt       time.Time        `gorm:"column:created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type productRecord struct {
	ID         string    `gorm:"primaryKey;column:id;size:64"`
	Title      string    `gorm:"column:title"`
	TotalStock int       `gorm:"column:total_stock;check:total_stock >= 0"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type cartRecord struct {
	ID        string           `gorm:"primaryKey;column:id;size:64"`
	UserID    string           `gorm:"column:user_id;size:64;index"`
	Items     []lineItemRecord `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt time.Time        `gorm:"column:created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at"`
}

func (cartRecord) TableName() string { return "carts" }

// Save inserts an order.
func (s *Store) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches an order by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ListByUser returns the user's orders, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Order("id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// Delete removes an order by identifier.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Delete(&orderRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// GetProduct loads a product's current stock.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return &domain.Product{ID: record.ID, Title: record.Title, TotalStock: record.TotalStock}, nil
}

// Reserve applies conditional decrements inside one transaction.
func (s *Store) Reserve(ctx context.Context, lines []domain.StockLine) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reserve(tx, lines)
	})
}

// Release adds reserved quantities back.
func (s *Store) Release(ctx context.Context, lines []domain.StockLine) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := tx.Model(&productRecord{}).
				Where("id = ?", line.ProductID).
				UpdateColumn("total_stock", gorm.Expr("total_stock + ?", line.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteCart removes a cart; a missing cart is ignored.
func (s *Store) DeleteCart(ctx context.Context, id string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&cartRecord{}, "id = ?", id).Error
}

// Place commits stock decrements, the order row and the cart deletion in one transaction.
func (s *Store) Place(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reserve(tx, domain.StockLines(order.Items)); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if order.CartID != nil {
			if err := tx.Delete(&cartRecord{}, "id = ?", *order.CartID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// PutProduct upserts a product. Used for seeding and tests.
func (s *Store) PutProduct(ctx context.Context, product domain.Product) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := productRecord{ID: product.ID, Title: product.Title, TotalStock: product.TotalStock}
	return s.db.WithContext(ctx).Save(&record).Error
}

// PutCart upserts a cart. Used for seeding and tests.
func (s *Store) PutCart(ctx context.Context, cart domain.Cart) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	record := cartRecord{ID: cart.ID, UserID: cart.UserID, Items: toLineItemRecords(cart.Items)}
	return s.db.WithContext(ctx).Save(&record).Error
}

// reserve decrements each line only while stock covers it. Lines arrive sorted by
// product id so concurrent transactions lock rows in the same order.
func reserve(tx *gorm.DB, lines []domain.StockLine) error {
	for _, line := range lines {
		result := tx.Model(&productRecord{}).
			Where("id = ? AND total_stock >= ?", line.ProductID, line.Quantity).
			UpdateColumn("total_stock", gorm.Expr("total_stock - ?", line.Quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.NewInsufficientStockError(line)
		}
	}
	return nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres order store not configured")
	}
	return nil
}

func toOrderRecord(order *domain.Order) orderRecord {
	ids := make(pq.StringArray, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	return orderRecord{
		ID:              order.ID,
		UserID:          order.UserID,
		CartID:          order.CartID,
		Items:           toLineItemRecords(order.Items),
		ProductIDs:      ids,
		Address:         map[string]any(order.Address),
		OrderStatus:     string(order.OrderStatus),
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   string(order.PaymentStatus),
		TotalAmount:     order.TotalAmount,
		OrderDate:       order.OrderDate,
		OrderUpdateDate: order.OrderUpdateDate,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return &domain.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		CartID:          r.CartID,
		Items:           items,
		Address:         domain.Address(r.Address),
		OrderStatus:     domain.OrderStatus(r.OrderStatus),
		PaymentMethod:   r.PaymentMethod,
		PaymentStatus:   domain.PaymentStatus(r.PaymentStatus),
		TotalAmount:     r.TotalAmount,
		OrderDate:       r.OrderDate,
		OrderUpdateDate: r.OrderUpdateDate,
	}
}

func toLineItemRecords(items []domain.LineItem) []lineItemRecord {
	records := make([]lineItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, lineItemRecord{
			ProductID: item.ProductID,
			Title:     item.Title,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return records
}
