package models

import (
	"time"
)

// SaleStatSnapshot is a periodic progress snapshot written by the schedule
// worker. State is the computed lifecycle string at snapshot time.
type SaleStatSnapshot struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	SaleID            uint      `gorm:"not null;index" json:"sale_id"`
	State             string    `gorm:"size:20;not null" json:"state"`
	CurrentPhaseIndex int       `gorm:"not null" json:"current_phase_index"`
	TotalSold         uint64    `gorm:"not null" json:"total_sold"`
	TotalForSale      uint64    `gorm:"not null" json:"total_for_sale"`
	PurchaseCount     int64     `gorm:"not null;default:0" json:"purchase_count"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (SaleStatSnapshot) TableName() string {
	return "sale_stat_snapshot"
}
