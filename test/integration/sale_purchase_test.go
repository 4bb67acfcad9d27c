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

type PurchasePayload struct {
	SaleID       uint   `json:"sale_id"`
	BuyerAddress string `json:"buyer_address"`
	BuyerQuote   string `json:"buyer_quote_account"`
	BuyerToken   string `json:"buyer_token_account"`
	Budget       uint64 `json:"budget"`
}

// Settlement needs funded on-chain accounts, so these tests only exercise
// the request validation and lookup paths.
func TestSalePurchaseAPI(t *testing.T) {
	t.Run("Purchase With Missing Fields Rejected", func(t *testing.T) {
		payload, err := json.Marshal(PurchasePayload{SaleID: 1})
		require.NoError(t, err)

		resp, err := http.Post(BaseURL+"/sale-purchase", "application/json", bytes.NewBuffer(payload))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Purchase Against Unknown Sale Fails", func(t *testing.T) {
		payload, err := json.Marshal(PurchasePayload{
			SaleID:       999999,
			BuyerAddress: testOwner,
			BuyerQuote:   "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E",
			BuyerToken:   "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E",
			Budget:       1000,
		})
		require.NoError(t, err)

		resp, err := http.Post(BaseURL+"/sale-purchase", "application/json", bytes.NewBuffer(payload))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("List Purchase Records Empty Sale", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/sale-purchase/sale/%d?page=1&page_size=10", BaseURL, 999999))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
