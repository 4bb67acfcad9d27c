package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SaleConfigPayload struct {
	Name                   string `json:"name"`
	OwnerAddress           string `json:"owner_address"`
	TokenMint              string `json:"token_mint"`
	QuoteMint              string `json:"quote_mint"`
	FundsRecipient         string `json:"funds_recipient"`
	CustodyAddress         string `json:"custody_address"`
	CustodyAuthority       string `json:"custody_authority"`
	TotalForSale           uint64 `json:"total_for_sale"`
	BasePrice              uint64 `json:"base_price"`
	PriceIncrementPerPhase uint64 `json:"price_increment_per_phase"`
}

type SaleConfigResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	OwnerAddress string `json:"owner_address"`
	TotalForSale uint64 `json:"total_for_sale"`
	SaleStart    int64  `json:"sale_start"`
	SaleEnd      int64  `json:"sale_end"`
	Extended     bool   `json:"extended"`
}

type SaleStatusResponse struct {
	SaleID            uint   `json:"sale_id"`
	State             string `json:"state"`
	CurrentPhaseIndex int    `json:"current_phase_index"`
	TotalSold         uint64 `json:"total_sold"`
	TotalForSale      uint64 `json:"total_for_sale"`
	Phases            []struct {
		Index      int    `json:"index"`
		Price      uint64 `json:"price"`
		Allocation uint64 `json:"allocation"`
		Sold       uint64 `json:"sold"`
		Remaining  uint64 `json:"remaining"`
	} `json:"phases"`
}

const testOwner = "6yKHERk8rsbmJxvMpPuwPs1ct3hRiP7xaJF2tvnGU6nK"

func TestSaleConfigAPI(t *testing.T) {
	var saleID uint

	t.Run("Create Sale Config", func(t *testing.T) {
		config := SaleConfigPayload{
			Name:                   "Integration Test Sale",
			OwnerAddress:           testOwner,
			TokenMint:              "So11111111111111111111111111111111111111112",
			QuoteMint:              "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			FundsRecipient:         testOwner,
			CustodyAddress:         "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E",
			CustodyAuthority:       testOwner,
			TotalForSale:           1_000_000,
			BasePrice:              1_000_000_000_000_000_000,
			PriceIncrementPerPhase: 100_000_000_000_000_000,
		}

		payload, err := json.Marshal(config)
		require.NoError(t, err)

		resp, err := http.Post(BaseURL+"/sale-config", "application/json", bytes.NewBuffer(payload))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response SaleConfigResponse
		err = json.NewDecoder(resp.Body).Decode(&response)
		require.NoError(t, err)
		assert.NotZero(t, response.ID)
		assert.Equal(t, config.TotalForSale, response.TotalForSale)
		assert.False(t, response.Extended)
		saleID = response.ID
	})

	t.Run("Get Sale Config", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/sale-config/%d", BaseURL, saleID))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var config SaleConfigResponse
		err = json.NewDecoder(resp.Body).Decode(&config)
		require.NoError(t, err)
		assert.Equal(t, saleID, config.ID)
		assert.Equal(t, testOwner, config.OwnerAddress)
	})

	t.Run("Get Sale Status", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/sale-config/%d/status", BaseURL, saleID))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var status SaleStatusResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		require.NoError(t, err)
		assert.Equal(t, "active", status.State)
		assert.Equal(t, 0, status.CurrentPhaseIndex)
		assert.Zero(t, status.TotalSold)
		assert.Len(t, status.Phases, 10)
		assert.Equal(t, status.Phases[0].Allocation, status.Phases[0].Remaining)
	})

	t.Run("Extend Without Owner Header Fails", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost,
			fmt.Sprintf("%s/sale-config/%d/extend", BaseURL, saleID), nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Extend Sale Once", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost,
			fmt.Sprintf("%s/sale-config/%d/extend", BaseURL, saleID), nil)
		require.NoError(t, err)
		req.Header.Set("X-Owner-Address", testOwner)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated SaleConfigResponse
		err = json.NewDecoder(resp.Body).Decode(&updated)
		require.NoError(t, err)
		assert.True(t, updated.Extended)
	})

	t.Run("Second Extension Rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost,
			fmt.Sprintf("%s/sale-config/%d/extend", BaseURL, saleID), nil)
		require.NoError(t, err)
		req.Header.Set("X-Owner-Address", testOwner)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("List Sale Configs", func(t *testing.T) {
		resp, err := http.Get(BaseURL + "/sale-config")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var configs []SaleConfigResponse
		err = json.NewDecoder(resp.Body).Decode(&configs)
		require.NoError(t, err)
		assert.NotEmpty(t, configs)
	})
}
