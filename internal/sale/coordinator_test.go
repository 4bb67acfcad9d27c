package sale

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTransferrer is an in-memory AssetTransferrer keeping string-keyed
// balances. Failures are injected per source account.
type memTransferrer struct {
	balances map[string]uint64
	failFrom map[string]error
	calls    int
}

func newMemTransferrer() *memTransferrer {
	return &memTransferrer{balances: map[string]uint64{}, failFrom: map[string]error{}}
}

func (m *memTransferrer) apply(leg TransferLeg) error {
	if err := m.failFrom[leg.From]; err != nil {
		return err
	}
	if m.balances[leg.From] < leg.Amount {
		return fmt.Errorf("insufficient balance in %s", leg.From)
	}
	m.balances[leg.From] -= leg.Amount
	m.balances[leg.To] += leg.Amount
	return nil
}

func (m *memTransferrer) Transfer(_ context.Context, leg TransferLeg) (string, error) {
	m.calls++
	if err := m.apply(leg); err != nil {
		return "", err
	}
	return fmt.Sprintf("sig-%d", m.calls), nil
}

func (m *memTransferrer) TransferPair(_ context.Context, payment, delivery TransferLeg) (string, error) {
	m.calls++
	before := map[string]uint64{}
	for k, v := range m.balances {
		before[k] = v
	}
	if err := m.apply(payment); err != nil {
		return "", err
	}
	if err := m.apply(delivery); err != nil {
		m.balances = before // both legs or neither
		return "", err
	}
	return fmt.Sprintf("sig-%d", m.calls), nil
}

func testCoordinator(transfer *memTransferrer, now int64) *Coordinator {
	c := NewCoordinator(transfer)
	c.Now = func() time.Time { return time.Unix(now, 0) }
	return c
}

func testPurchaseRequest(budget uint64) PurchaseRequest {
	return PurchaseRequest{
		Buyer:            "buyer",
		BuyerQuote:       "buyer-quote",
		RecipientQuote:   "recipient-quote",
		Custody:          "custody",
		CustodyAuthority: "custody-authority",
		BuyerToken:       "buyer-token",
		Budget:           budget,
	}
}

func TestSettle(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	t.Run("successful purchase commits and moves both assets", func(t *testing.T) {
		cfg := testConfig(start)
		l := twoPhaseLedger(100, 100)
		tr := newMemTransferrer()
		tr.balances["buyer-quote"] = 250
		tr.balances["custody"] = 200

		c := testCoordinator(tr, start+10)
		s, err := c.Settle(context.Background(), cfg, l, testPurchaseRequest(250))
		require.NoError(t, err)

		assert.Equal(t, uint64(150), s.Plan.TotalTokens)
		assert.Equal(t, uint64(200), s.Plan.TotalCost)
		assert.NotEmpty(t, s.Signature)

		// quote moved, tokens delivered, unspent remainder stays with buyer
		assert.Equal(t, uint64(50), tr.balances["buyer-quote"])
		assert.Equal(t, uint64(200), tr.balances["recipient-quote"])
		assert.Equal(t, uint64(150), tr.balances["buyer-token"])
		assert.Equal(t, uint64(50), tr.balances["custody"])

		sold, err := l.TotalSold()
		require.NoError(t, err)
		assert.Equal(t, uint64(150), sold)
	})

	t.Run("not yet started", func(t *testing.T) {
		cfg := testConfig(start)
		l := twoPhaseLedger(100, 100)
		c := testCoordinator(newMemTransferrer(), start-5)

		_, err := c.Settle(context.Background(), cfg, l, testPurchaseRequest(100))
		assert.ErrorIs(t, err, ErrSaleNotActive)
	})

	t.Run("ended", func(t *testing.T) {
		cfg := testConfig(start)
		l := twoPhaseLedger(100, 100)
		c := testCoordinator(newMemTransferrer(), cfg.SaleEnd+1)

		_, err := c.Settle(context.Background(), cfg, l, testPurchaseRequest(100))
		assert.ErrorIs(t, err, ErrSaleNotActive)
	})

	t.Run("transfer failure leaves the ledger unmutated", func(t *testing.T) {
		cfg := testConfig(start)
		l := twoPhaseLedger(100, 100)
		tr := newMemTransferrer()
		tr.balances["buyer-quote"] = 250
		tr.failFrom["buyer-quote"] = errors.New("rpc timeout")

		c := testCoordinator(tr, start+10)
		_, err := c.Settle(context.Background(), cfg, l, testPurchaseRequest(250))
		require.Error(t, err)

		var terr *TransferError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "settlement", terr.Stage)

		sold, err := l.TotalSold()
		require.NoError(t, err)
		assert.Zero(t, sold)
	})

	t.Run("failed delivery rolls back the payment leg", func(t *testing.T) {
		cfg := testConfig(start)
		l := twoPhaseLedger(100, 100)
		tr := newMemTransferrer()
		tr.balances["buyer-quote"] = 250
		tr.balances["custody"] = 10 // less than the planned delivery

		c := testCoordinator(tr, start+10)
		_, err := c.Settle(context.Background(), cfg, l, testPurchaseRequest(250))
		require.Error(t, err)

		assert.Equal(t, uint64(250), tr.balances["buyer-quote"])
		sold, err := l.TotalSold()
		require.NoError(t, err)
		assert.Zero(t, sold)
	})

	t.Run("zero budget rejected before planning", func(t *testing.T) {
		cfg := testConfig(start)
		l := twoPhaseLedger(100, 100)
		c := testCoordinator(newMemTransferrer(), start+10)

		_, err := c.Settle(context.Background(), cfg, l, testPurchaseRequest(0))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestDeposit(t *testing.T) {
	tr := newMemTransferrer()
	tr.balances["owner-token"] = 500
	c := testCoordinator(tr, 0)

	sig, err := c.Deposit(context.Background(), "owner-token", "custody", "owner", 500)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
	assert.Equal(t, uint64(500), tr.balances["custody"])

	_, err = c.Deposit(context.Background(), "owner-token", "custody", "owner", 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWithdrawUnsold(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	cfg := testConfig(start)

	t.Run("before sale end", func(t *testing.T) {
		c := testCoordinator(newMemTransferrer(), cfg.SaleEnd)
		_, err := c.WithdrawUnsold(context.Background(), cfg, "custody", "owner-token", "custody-authority", 100)
		assert.ErrorIs(t, err, ErrSaleNotActive)
	})

	t.Run("zero custody balance", func(t *testing.T) {
		c := testCoordinator(newMemTransferrer(), cfg.SaleEnd+1)
		_, err := c.WithdrawUnsold(context.Background(), cfg, "custody", "owner-token", "custody-authority", 0)
		assert.ErrorIs(t, err, ErrNothingToWithdraw)
	})

	t.Run("withdraws the full balance after end", func(t *testing.T) {
		tr := newMemTransferrer()
		tr.balances["custody"] = 70
		c := testCoordinator(tr, cfg.SaleEnd+1)

		_, err := c.WithdrawUnsold(context.Background(), cfg, "custody", "owner-token", "custody-authority", 70)
		require.NoError(t, err)
		assert.Zero(t, tr.balances["custody"])
		assert.Equal(t, uint64(70), tr.balances["owner-token"])
	})
}
