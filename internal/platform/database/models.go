package database

import (
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductRecord is the catalog row.
type ProductRecord struct {
	SKU       string          `gorm:"primaryKey;size:64"`
	Name      string          `gorm:"size:255;not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	Currency  string          `gorm:"size:3;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name.
func (ProductRecord) TableName() string { return "products" }

// OrderRecord is the order row. Line items are kept as jsonb.
type OrderRecord struct {
	ID               string                                `gorm:"primaryKey;size:36"`
	Status           string                                `gorm:"size:16;index;not null"`
	Items            datatypes.JSONType[[]domain.LineItem] `gorm:"type:jsonb"`
	Total            decimal.Decimal                       `gorm:"type:numeric(14,4);not null"`
	Currency         string                                `gorm:"size:3;not null"`
	Country          string                                `gorm:"size:2;not null"`
	PayerName        string                                `gorm:"size:255"`
	PayerEmail       string                                `gorm:"size:255"`
	PayerDocument    string                                `gorm:"size:64"`
	GatewayPaymentID string                                `gorm:"size:64;index"`
	StatusDetail     string                                `gorm:"size:512"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the default table name.
func (OrderRecord) TableName() string { return "orders" }

func productFromRecord(r ProductRecord) domain.Product {
	return domain.Product{
		SKU:       r.SKU,
		Name:      r.Name,
		UnitPrice: r.UnitPrice,
		Currency:  r.Currency,
	}
}

func productToRecord(p domain.Product) ProductRecord {
	return ProductRecord{
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Currency:  p.Currency,
	}
}

func orderFromRecord(r OrderRecord) domain.Order {
	return domain.Order{
		ID:     r.ID,
		Status: domain.OrderStatus(r.Status),
		Items:  r.Items.Data(),
		Total:  r.Total,
		Payer: domain.Payer{
			Name:     r.PayerName,
			Email:    r.PayerEmail,
			Document: r.PayerDocument,
		},
		Currency:         r.Currency,
		Country:          r.Country,
		GatewayPaymentID: r.GatewayPaymentID,
		StatusDetail:     r.StatusDetail,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func orderToRecord(o domain.Order) OrderRecord {
	return OrderRecord{
		ID:               o.ID,
		Status:           string(o.Status),
		Items:            datatypes.NewJSONType(o.Items),
		Total:            o.Total,
		Currency:         o.Currency,
		Country:          o.Country,
		PayerName:        o.Payer.Name,
		PayerEmail:       o.Payer.Email,
		PayerDocument:    o.Payer.Document,
		GatewayPaymentID: o.GatewayPaymentID,
		StatusDetail:     o.StatusDetail,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
