package business

import (
	"context"
	"errors"
	"fmt"

	"presalecontrol/internal/models"
	dbconfig "presalecontrol/pkg/config"
	"presalecontrol/pkg/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSupplyNotInitialized is returned for operations on an unknown mint.
	ErrSupplyNotInitialized = errors.New("token supply not initialized")
	// ErrUnauthorizedAuthority is returned when the caller is not the
	// current supply authority.
	ErrUnauthorizedAuthority = errors.New("unauthorized supply authority")
)

// MetadataLookup resolves name and symbol from chain metadata when an init
// request omits them. Left nil when no RPC endpoint is configured.
var MetadataLookup func(ctx context.Context, mint string) (name, symbol string, err error)

// InitializeSupply creates the supply state for a mint with its initial
// supply fully circulating.
func InitializeSupply(ctx context.Context, mint, authority, name, symbol string, decimals uint8, initialSupply uint64) (*models.TokenSupplyState, error) {
	if (name == "" || symbol == "") && MetadataLookup != nil {
		chainName, chainSymbol, err := MetadataLookup(ctx, mint)
		if err != nil {
			logrus.Warnf("metadata lookup failed for mint %s: %v", mint, err)
		} else {
			if name == "" {
				name = chainName
			}
			if symbol == "" {
				symbol = chainSymbol
			}
		}
	}

	state := &models.TokenSupplyState{
		Mint:              mint,
		Authority:         authority,
		Name:              name,
		Symbol:            symbol,
		Decimals:          decimals,
		TotalSupply:       initialSupply,
		CirculatingSupply: initialSupply,
		Initialized:       true,
	}
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.TokenSupplyState
		if err := tx.Where("mint = ?", mint).First(&existing).Error; err == nil {
			return fmt.Errorf("supply already initialized for mint %s", mint)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(state).Error; err != nil {
			return err
		}
		return tx.Create(&models.TokenSupplyEvent{
			Mint:   mint,
			Kind:   "initialized",
			Amount: initialSupply,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// lockSupply reads the supply row under a row lock and checks the caller is
// the current authority.
func lockSupply(tx *gorm.DB, mint, authority string) (*models.TokenSupplyState, error) {
	var state models.TokenSupplyState
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("mint = ?", mint).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplyNotInitialized
		}
		return nil, err
	}
	if !state.Initialized {
		return nil, ErrSupplyNotInitialized
	}
	if state.Authority != authority {
		return nil, ErrUnauthorizedAuthority
	}
	return &state, nil
}

// MintSupply increases total and circulating supply with checked adds.
func MintSupply(mint, authority, toAccount string, amount uint64) (*models.TokenSupplyState, error) {
	var state *models.TokenSupplyState
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if state, err = lockSupply(tx, mint, authority); err != nil {
			return err
		}
		if state.CirculatingSupply, err = utils.CheckedAdd(state.CirculatingSupply, amount); err != nil {
			return err
		}
		if state.TotalSupply, err = utils.CheckedAdd(state.TotalSupply, amount); err != nil {
			return err
		}
		if err := tx.Model(state).Updates(map[string]interface{}{
			"circulating_supply": state.CirculatingSupply,
			"total_supply":       state.TotalSupply,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.TokenSupplyEvent{
			Mint: mint, Kind: "minted", Amount: amount, Account: toAccount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"mint": mint, "amount": amount}).Info("Supply minted")
	return state, nil
}

// BurnSupply reduces circulating supply and grows the burned counter.
func BurnSupply(mint, authority, fromAccount string, amount uint64) (*models.TokenSupplyState, error) {
	var state *models.TokenSupplyState
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if state, err = lockSupply(tx, mint, authority); err != nil {
			return err
		}
		if state.CirculatingSupply, err = utils.CheckedSub(state.CirculatingSupply, amount); err != nil {
			return err
		}
		if state.BurnedSupply, err = utils.CheckedAdd(state.BurnedSupply, amount); err != nil {
			return err
		}
		if err := tx.Model(state).Updates(map[string]interface{}{
			"circulating_supply": state.CirculatingSupply,
			"burned_supply":      state.BurnedSupply,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.TokenSupplyEvent{
			Mint: mint, Kind: "burned", Amount: amount, Account: fromAccount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"mint": mint, "amount": amount}).Info("Supply burned")
	return state, nil
}

// TransferSupplyAuthority hands the supply authority to a new address.
func TransferSupplyAuthority(mint, authority, newAuthority string) (*models.TokenSupplyState, error) {
	var state *models.TokenSupplyState
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if state, err = lockSupply(tx, mint, authority); err != nil {
			return err
		}
		state.Authority = newAuthority
		if err := tx.Model(state).Update("authority", newAuthority).Error; err != nil {
			return err
		}
		return tx.Create(&models.TokenSupplyEvent{
			Mint: mint, Kind: "authority_transferred", Account: newAuthority,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}
