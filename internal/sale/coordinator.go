package sale

import (
	"context"
	"fmt"
	"time"
)

// TransferLeg is one movement of a fungible asset balance. Authority is the
// signer: the buyer for payment legs, the custody authority for delivery and
// withdrawal legs.
type TransferLeg struct {
	From      string
	To        string
	Authority string
	Amount    uint64
}

// AssetTransferrer is the external value-transfer primitive. Implementations
// must be all-or-nothing: a returned error means no balance moved.
type AssetTransferrer interface {
	// Transfer moves a single asset balance.
	Transfer(ctx context.Context, leg TransferLeg) (signature string, err error)
	// TransferPair executes the payment and delivery legs as one atomic
	// transfer; either both settle or neither does.
	TransferPair(ctx context.Context, payment, delivery TransferLeg) (signature string, err error)
}

// PurchaseRequest carries the accounts of one purchase attempt.
type PurchaseRequest struct {
	Buyer            string
	BuyerQuote       string // buyer's quote-asset account, payment source
	RecipientQuote   string // funds recipient quote-asset account
	Custody          string // sale-asset inventory account
	CustodyAuthority string // authority derived from the sale record
	BuyerToken       string // buyer's sale-asset account, delivery target
	Budget           uint64
}

// Settlement is the outcome of a committed purchase.
type Settlement struct {
	Plan      *Plan
	Signature string
}

// Coordinator orchestrates a purchase: state gate, allocation, the external
// transfer, then commit. Accounting and token delivery move in the same
// atomic transfer pair, so a sold counter can never advance without the buyer
// holding the tokens it accounts for.
type Coordinator struct {
	Transfer AssetTransferrer
	Now      func() time.Time
}

// NewCoordinator wires a coordinator over the given transfer primitive.
func NewCoordinator(t AssetTransferrer) *Coordinator {
	return &Coordinator{Transfer: t, Now: time.Now}
}

// Settle runs one purchase attempt end to end. The ledger is mutated only
// after the transfer succeeds; every earlier failure leaves it untouched.
// Callers must hold exclusive ownership of cfg and l for the duration.
func (c *Coordinator) Settle(ctx context.Context, cfg *Config, l *Ledger, req PurchaseRequest) (*Settlement, error) {
	state, err := StateAt(cfg, l, c.Now().Unix())
	if err != nil {
		return nil, err
	}
	if state != StateActive {
		return nil, fmt.Errorf("%w: state is %s", ErrSaleNotActive, state)
	}
	if req.Budget == 0 {
		return nil, fmt.Errorf("%w: zero budget", ErrInvalidConfig)
	}

	plan, err := PlanPurchase(l, cfg, req.Budget)
	if err != nil {
		return nil, err
	}

	payment := TransferLeg{
		From:      req.BuyerQuote,
		To:        req.RecipientQuote,
		Authority: req.Buyer,
		Amount:    plan.TotalCost,
	}
	delivery := TransferLeg{
		From:      req.Custody,
		To:        req.BuyerToken,
		Authority: req.CustodyAuthority,
		Amount:    plan.TotalTokens,
	}
	sig, err := c.Transfer.TransferPair(ctx, payment, delivery)
	if err != nil {
		return nil, &TransferError{Stage: "settlement", Err: err}
	}

	if err := l.Commit(plan); err != nil {
		return nil, err
	}
	return &Settlement{Plan: plan, Signature: sig}, nil
}

// Deposit moves sale-asset inventory from the owner into custody. Caller
// authorization is a precondition; the owner signs the leg.
func (c *Coordinator) Deposit(ctx context.Context, from, custody, owner string, amount uint64) (string, error) {
	if amount == 0 {
		return "", fmt.Errorf("%w: zero deposit", ErrInvalidConfig)
	}
	sig, err := c.Transfer.Transfer(ctx, TransferLeg{From: from, To: custody, Authority: owner, Amount: amount})
	if err != nil {
		return "", &TransferError{Stage: "deposit", Err: err}
	}
	return sig, nil
}

// WithdrawUnsold returns the remaining custody balance to the owner once the
// sale window has closed.
func (c *Coordinator) WithdrawUnsold(ctx context.Context, cfg *Config, custody, to, authority string, custodyBalance uint64) (string, error) {
	if c.Now().Unix() <= cfg.SaleEnd {
		return "", fmt.Errorf("%w: sale has not ended", ErrSaleNotActive)
	}
	if custodyBalance == 0 {
		return "", ErrNothingToWithdraw
	}
	sig, err := c.Transfer.Transfer(ctx, TransferLeg{From: custody, To: to, Authority: authority, Amount: custodyBalance})
	if err != nil {
		return "", &TransferError{Stage: "withdraw", Err: err}
	}
	return sig, nil
}
