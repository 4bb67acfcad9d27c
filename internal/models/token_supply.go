package models

import (
	"time"
)

// TokenSupplyState tracks mint/burn accounting for a managed token mint.
// This is the simple supply state machine that lives alongside the sale:
// authority-gated mint and burn with checked supply counters, plus one-way
// authority handover.
type TokenSupplyState struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	Mint              string    `gorm:"size:44;not null;uniqueIndex" json:"mint"`
	Authority         string    `gorm:"size:44;not null" json:"authority"`
	Name              string    `gorm:"size:64;not null" json:"name"`
	Symbol            string    `gorm:"size:16;not null" json:"symbol"`
	Decimals          uint8     `gorm:"not null" json:"decimals"`
	TotalSupply       uint64    `gorm:"not null" json:"total_supply"`
	CirculatingSupply uint64    `gorm:"not null" json:"circulating_supply"`
	BurnedSupply      uint64    `gorm:"not null;default:0" json:"burned_supply"`
	Initialized       bool      `gorm:"default:false" json:"initialized"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (TokenSupplyState) TableName() string {
	return "token_supply_state"
}

// TokenSupplyEvent is the append-only log of supply mutations.
type TokenSupplyEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Mint      string    `gorm:"size:44;not null;index" json:"mint"`
	Kind      string    `gorm:"size:24;not null" json:"kind"` // "initialized", "minted", "burned", "authority_transferred"
	Amount    uint64    `json:"amount"`
	Account   string    `gorm:"size:44" json:"account"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (TokenSupplyEvent) TableName() string {
	return "token_supply_event"
}
