package business

import (
	"fmt"
	"sort"
	"time"

	"presalecontrol/internal/models"
	"presalecontrol/internal/sale"
	dbconfig "presalecontrol/pkg/config"
)

// PhaseStatus is one phase in the query surface.
type PhaseStatus struct {
	Index      int    `json:"index"`
	Price      uint64 `json:"price"`
	Allocation uint64 `json:"allocation"`
	Sold       uint64 `json:"sold"`
	Remaining  uint64 `json:"remaining"`
}

// SaleStatus is the recomputed workflow view of one sale record: nothing in
// it is stored, it all derives from the record plus wall-clock time.
type SaleStatus struct {
	SaleID            uint          `json:"sale_id"`
	State             string        `json:"state"`
	CurrentPhaseIndex int           `json:"current_phase_index"`
	TotalSold         uint64        `json:"total_sold"`
	TotalForSale      uint64        `json:"total_for_sale"`
	SaleStart         int64         `json:"sale_start"`
	SaleEnd           int64         `json:"sale_end"`
	Extended          bool          `json:"extended"`
	Phases            []PhaseStatus `json:"phases"`
}

// GetSaleStatus computes the current lifecycle view of a sale.
func GetSaleStatus(saleID uint) (*SaleStatus, error) {
	var record models.SaleConfig
	if err := dbconfig.DB.First(&record, saleID).Error; err != nil {
		return nil, err
	}
	var phases []models.SalePhase
	if err := dbconfig.DB.Where("sale_id = ?", saleID).Find(&phases).Error; err != nil {
		return nil, err
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].PhaseIndex < phases[j].PhaseIndex })
	if len(phases) != sale.NumPhases {
		return nil, fmt.Errorf("sale %d has %d phases, want %d", saleID, len(phases), sale.NumPhases)
	}

	cfg, ledger := toCore(&record, phases)
	totalSold, err := ledger.TotalSold()
	if err != nil {
		return nil, err
	}
	state, err := sale.StateAt(cfg, ledger, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	status := &SaleStatus{
		SaleID:            record.ID,
		State:             state.String(),
		CurrentPhaseIndex: ledger.FirstOpenPhase(),
		TotalSold:         totalSold,
		TotalForSale:      record.TotalForSale,
		SaleStart:         record.SaleStart,
		SaleEnd:           record.SaleEnd,
		Extended:          record.Extended,
		Phases:            make([]PhaseStatus, 0, sale.NumPhases),
	}
	for i := range ledger.Phases {
		status.Phases = append(status.Phases, PhaseStatus{
			Index:      i,
			Price:      ledger.Phases[i].Price,
			Allocation: ledger.Phases[i].Allocation,
			Sold:       ledger.Phases[i].Sold,
			Remaining:  ledger.Remaining(i),
		})
	}
	return status, nil
}
