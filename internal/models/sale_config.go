package models

import (
	"time"
)

// SaleConfig is one deployed sale record. The phase rows carry the only
// mutable quantities (sold counters); everything else is written once at
// initialization, except sale_end which may be extended exactly once.
type SaleConfig struct {
	ID                uint        `gorm:"primarykey" json:"id"`
	Name              string      `gorm:"size:64;not null" json:"name"`
	OwnerAddress      string      `gorm:"size:44;not null" json:"owner_address"`
	TokenMint         string      `gorm:"size:44;not null" json:"token_mint"`
	QuoteMint         string      `gorm:"size:44;not null" json:"quote_mint"`
	FundsRecipient    string      `gorm:"size:44;not null" json:"funds_recipient"`
	CustodyAddress    string      `gorm:"size:44;not null" json:"custody_address"`
	CustodyAuthority  string      `gorm:"size:44;not null" json:"custody_authority"`
	SaleStart         int64       `gorm:"not null" json:"sale_start"`
	SaleEndInitial    int64       `gorm:"not null" json:"sale_end_initial"`
	SaleEnd           int64       `gorm:"not null" json:"sale_end"`
	Extended          bool        `gorm:"default:false" json:"extended"`
	TotalForSale      uint64      `gorm:"not null" json:"total_for_sale"`
	OtherAssetEnabled bool        `gorm:"default:false" json:"other_asset_enabled"`
	CreatedAt         time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
	Phases            []SalePhase `gorm:"foreignKey:SaleID" json:"phases,omitempty"`
}

func (SaleConfig) TableName() string {
	return "sale_config"
}

// SalePhase is one pricing tier row. Exactly NumPhases rows exist per sale,
// created at initialization; price and allocation never change afterwards.
type SalePhase struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	SaleID     uint      `gorm:"not null;uniqueIndex:idx_sale_phase" json:"sale_id"`
	PhaseIndex int       `gorm:"not null;uniqueIndex:idx_sale_phase" json:"phase_index"`
	Price      uint64    `gorm:"not null" json:"price"`
	Allocation uint64    `gorm:"not null" json:"allocation"`
	Sold       uint64    `gorm:"not null;default:0" json:"sold"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SalePhase) TableName() string {
	return "sale_phase"
}
