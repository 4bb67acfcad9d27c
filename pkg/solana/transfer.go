package solana

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	log "github.com/sirupsen/logrus"

	"presalecontrol/internal/sale"
)

// KeyProvider resolves a signer address to its private key. The custody
// authority key and any service-held owner keys come from the keystore; the
// provider returns an error for addresses it does not hold.
type KeyProvider interface {
	PrivateKey(address string) (*solana.PrivateKey, error)
}

// Transferrer executes SPL token transfers and implements
// sale.AssetTransferrer. A settlement pair goes into a single transaction,
// so the payment and delivery legs land atomically or not at all.
type Transferrer struct {
	client  *rpc.Client
	keys    KeyProvider
	limiter *rate.Limiter
}

// NewTransferrer wires a transferrer over an RPC client. rps bounds how many
// submissions per second we push at the RPC node.
func NewTransferrer(client *rpc.Client, keys KeyProvider, rps int) *Transferrer {
	if rps <= 0 {
		rps = 5
	}
	return &Transferrer{
		client:  client,
		keys:    keys,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Transfer moves a single SPL balance.
func (t *Transferrer) Transfer(ctx context.Context, leg sale.TransferLeg) (string, error) {
	ix, signer, err := t.buildLeg(leg)
	if err != nil {
		return "", err
	}
	return t.submit(ctx, []solana.Instruction{ix}, signer.PublicKey(), []*solana.PrivateKey{signer})
}

// TransferPair executes the payment and delivery legs in one transaction.
func (t *Transferrer) TransferPair(ctx context.Context, payment, delivery sale.TransferLeg) (string, error) {
	payIx, paySigner, err := t.buildLeg(payment)
	if err != nil {
		return "", err
	}
	delivIx, delivSigner, err := t.buildLeg(delivery)
	if err != nil {
		return "", err
	}
	return t.submit(ctx,
		[]solana.Instruction{payIx, delivIx},
		paySigner.PublicKey(),
		[]*solana.PrivateKey{paySigner, delivSigner},
	)
}

func (t *Transferrer) buildLeg(leg sale.TransferLeg) (solana.Instruction, *solana.PrivateKey, error) {
	source, err := solana.PublicKeyFromBase58(leg.From)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid source %s: %w", leg.From, err)
	}
	dest, err := solana.PublicKeyFromBase58(leg.To)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid destination %s: %w", leg.To, err)
	}
	authority, err := solana.PublicKeyFromBase58(leg.Authority)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid authority %s: %w", leg.Authority, err)
	}
	key, err := t.keys.PrivateKey(leg.Authority)
	if err != nil {
		return nil, nil, fmt.Errorf("no signing key for authority %s: %w", leg.Authority, err)
	}
	ix := token.NewTransferInstruction(leg.Amount, source, dest, authority, nil).Build()
	return ix, key, nil
}

// submit builds, signs and sends one transaction, retrying transient RPC
// failures up to 3 times under the rate limiter.
func (t *Transferrer) submit(ctx context.Context, instructions []solana.Instruction, payer solana.PublicKey, signers []*solana.PrivateKey) (string, error) {
	const maxRetries = 3

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
			log.Warnf("Transfer submit attempt %d/%d after error: %v", attempt+1, maxRetries+1, lastErr)
		}

		bh, err := t.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			lastErr = err
			continue
		}
		tx, err := solana.NewTransaction(instructions, bh.Value.Blockhash, solana.TransactionPayer(payer))
		if err != nil {
			return "", err
		}
		if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
			for _, s := range signers {
				if key.Equals(s.PublicKey()) {
					return s
				}
			}
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to sign transaction: %w", err)
		}

		sig, err := t.client.SendTransaction(ctx, tx)
		if err != nil {
			lastErr = err
			continue
		}
		return sig.String(), nil
	}
	return "", fmt.Errorf("transfer failed after %d attempts: %w", maxRetries+1, lastErr)
}

// GetTokenAccountBalance returns the raw balance of an SPL token account.
func GetTokenAccountBalance(ctx context.Context, client *rpc.Client, address string) (uint64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid token account %s: %w", address, err)
	}
	res, err := client.GetTokenAccountBalance(ctx, pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get token account balance: %w", err)
	}
	var amount uint64
	if _, err := fmt.Sscan(res.Value.Amount, &amount); err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", res.Value.Amount, err)
	}
	return amount, nil
}
