// Package orderrepo maps the order aggregate onto the orders, order_lines and
// order_stages tables.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderDTO is a row of orders. Status and StatusEnteredAt mirror the last stage row so
// read queries and expiry scans do not need to aggregate the history.
type OrderDTO struct {
	ID              uuid.UUID                             `gorm:"type:uuid;primaryKey"`
	Number          string                                `gorm:"type:varchar(32);uniqueIndex;not null"`
	CustomerID      uuid.UUID                             `gorm:"type:uuid;index;not null"`
	Address         AddressDTO                            `gorm:"embedded;embeddedPrefix:address_"`
	Metadata        datatypes.JSONType[map[string]string] `gorm:"type:jsonb;not null"`
	Status          string                                `gorm:"type:varchar(32);not null"`
	StatusEnteredAt time.Time                             `gorm:"not null"`
	CreatedAt       time.Time                             `gorm:"autoCreateTime:false;not null"`
	UpdatedAt       time.Time                             `gorm:"autoUpdateTime:false;not null"`
	Lines           []LineDTO                             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Stages          []StageDTO                            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type AddressDTO struct {
	Country   string `gorm:"type:varchar(64)"`
	City      string `gorm:"type:varchar(128)"`
	Street    string `gorm:"type:varchar(255)"`
	Building  string `gorm:"type:varchar(32)"`
	Apartment string `gorm:"type:varchar(32)"`
	Comment   string `gorm:"type:text"`
}

// LineDTO is a row of order_lines. Lines never change after creation.
type LineDTO struct {
	OrderID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position  int             `gorm:"primaryKey"`
	SKU       string          `gorm:"column:sku;type:varchar(64);not null"`
	Name      string          `gorm:"type:varchar(255);not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Quantity  int             `gorm:"not null"`
}

func (LineDTO) TableName() string {
	return "order_lines"
}

// StageDTO is a row of order_stages. Rows are only ever inserted.
type StageDTO struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq       int       `gorm:"primaryKey"`
	Status    string    `gorm:"type:varchar(32);not null"`
	EnteredAt time.Time `gorm:"not null"`
	Actor     string    `gorm:"type:varchar(255)"`
	Note      string    `gorm:"type:text"`
}

func (StageDTO) TableName() string {
	return "order_stages"
}

func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()
	addr := o.Address()
	last := o.LastStage()

	lines := make([]LineDTO, 0, len(o.Lines()))
	for i, l := range o.Lines() {
		lines = append(lines, LineDTO{
			OrderID:   orderID,
			Position:  i,
			SKU:       l.SKU(),
			Name:      l.Name(),
			UnitPrice: l.UnitPrice(),
			Quantity:  l.Quantity(),
		})
	}

	stages := make([]StageDTO, 0, len(o.History()))
	for i, r := range o.History() {
		stages = append(stages, StageDTO{
			OrderID:   orderID,
			Seq:       i,
			Status:    r.Status().String(),
			EnteredAt: r.EnteredAt(),
			Actor:     r.Actor(),
			Note:      r.Note(),
		})
	}

	return OrderDTO{
		ID:         orderID,
		Number:     o.Number(),
		CustomerID: o.CustomerID().Bytes(),
		Address: AddressDTO{
			Country:   addr.Country(),
			City:      addr.City(),
			Street:    addr.Street(),
			Building:  addr.Building(),
			Apartment: addr.Apartment(),
			Comment:   addr.Comment(),
		},
		Metadata:        datatypes.NewJSONType(o.Metadata()),
		Status:          last.Status().String(),
		StatusEnteredAt: last.EnteredAt(),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
		Lines:           lines,
		Stages:          stages,
	}
}

// toDomain rebuilds the aggregate. Lines and Stages must be sorted by Position and Seq.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	addr, err := kernel.NewAddress(
		dto.Address.Country,
		dto.Address.City,
		dto.Address.Street,
		dto.Address.Building,
		dto.Address.Apartment,
		dto.Address.Comment,
	)
	if err != nil {
		return nil, err
	}

	lines := make([]order.Line, 0, len(dto.Lines))
	for _, l := range dto.Lines {
		line, lineErr := order.NewLine(l.SKU, l.Name, l.UnitPrice, l.Quantity)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, line)
	}

	history := make([]order.StageRecord, 0, len(dto.Stages))
	for _, s := range dto.Stages {
		status, statusErr := order.ParseStatus(s.Status)
		if statusErr != nil {
			return nil, statusErr
		}
		record, recordErr := order.NewStageRecord(status, s.EnteredAt, s.Actor, s.Note)
		if recordErr != nil {
			return nil, recordErr
		}
		history = append(history, record)
	}

	return order.RestoreOrder(id, dto.Number, customerID, addr, lines, dto.Metadata.Data(), history, dto.CreatedAt, dto.UpdatedAt)
}
