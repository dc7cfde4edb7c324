package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&cartRecord{},
		&orderRecord{},
		&idempotencyRecord{},
	)
}

type lineItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Product schema mirrors the orders Postgres adapter.
type productRecord struct {
	ID         string    `gorm:"primaryKey;column:id;size:64"`
	Title      string    `gorm:"column:title"`
	TotalStock int       `gorm:"column:total_stock;check:total_stock >= 0"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

type cartRecord struct {
	ID        string     `gorm:"primaryKey;column:id;size:64"`
	UserID    string     `gorm:"column:user_id;size:64;index"`
	Items     []lineItem `gorm:"column:items;type:jsonb;serializer:json"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (cartRecord) TableName() string { return "carts" }

type orderRecord struct {
	ID              string          `gorm:"primaryKey;column:id;size:64"`
	UserID          string          `gorm:"column:user_id;size:64;index:idx_orders_user_date"`
	CartID          *string         `gorm:"column:cart_id;size:64"`
	Items           []lineItem      `gorm:"column:items;type:jsonb;serializer:json"`
	ProductIDs      pq.StringArray  `gorm:"column:product_ids;type:text[]"`
	Address         map[string]any  `gorm:"column:address;type:jsonb;serializer:json"`
	OrderStatus     string          `gorm:"column:order_status;type:varchar(32);index"`
	PaymentMethod   string          `gorm:"column:payment_method;size:64"`
	PaymentStatus   string          `gorm:"column:payment_status;type:varchar(32)"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2)"`
	OrderDate       time.Time       `gorm:"column:order_date;index:idx_orders_user_date"`
	OrderUpdateDate time.Time       `gorm:"column:order_update_date"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Idempotency schema mirrors the idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     string    `gorm:"column:order_id;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "order_idempotency_keys" }
