package models

import (
	"encoding/json"
	"time"
)

// PurchaseRecord is the audit row written for every committed settlement.
// PhaseBreakdown is the per-phase token split as a JSON array indexed by
// phase.
type PurchaseRecord struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	SaleID         uint            `gorm:"not null;index" json:"sale_id"`
	BuyerAddress   string          `gorm:"size:44;not null;index" json:"buyer_address"`
	Budget         uint64          `gorm:"not null" json:"budget"`
	TotalTokens    uint64          `gorm:"not null" json:"total_tokens"`
	TotalCost      uint64          `gorm:"not null" json:"total_cost"`
	PhaseBreakdown json.RawMessage `gorm:"type:jsonb" json:"phase_breakdown"`
	Signature      string          `gorm:"size:96" json:"signature"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (PurchaseRecord) TableName() string {
	return "purchase_record"
}

// SaleFundTransferRecord tracks custody deposits and unsold withdrawals.
type SaleFundTransferRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SaleID    uint      `gorm:"not null;index" json:"sale_id"`
	Mint      string    `gorm:"size:44;not null" json:"mint"`
	Direction string    `gorm:"size:20;not null" json:"direction"` // "in" or "out"
	Amount    uint64    `gorm:"not null" json:"amount"`
	Signature string    `gorm:"size:96" json:"signature"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (SaleFundTransferRecord) TableName() string {
	return "sale_fund_transfer_record"
}
