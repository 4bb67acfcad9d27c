package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"presalecontrol/internal/handlers"
	"presalecontrol/internal/handlers/business"
	"presalecontrol/internal/routes"
	"presalecontrol/pkg/config"
	"presalecontrol/pkg/helius"
	solanapkg "presalecontrol/pkg/solana"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func main() {
	// Initialize database
	config.InitDB()

	// Run pending SQL migrations (schema itself is AutoMigrated; these cover
	// indexes and data fixes)
	if os.Getenv("RUN_MIGRATIONS") == "true" {
		config.ExecuteMigrations()
	}

	// Initialize RabbitMQ (optional, will log warning if not configured)
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer func() {
			if config.RabbitMQ != nil {
				config.RabbitMQ.Close()
			}
		}()
		log.Println("RabbitMQ initialized successfully")
	} else {
		log.Println("RabbitMQ not configured, skipping initialization")
	}

	// Wire the on-chain settlement path: RPC client, encrypted keystore and
	// the rate-limited transferrer the purchase flow settles through. When a
	// candidate list is configured, probe it and take the fastest healthy one.
	rpcURL := os.Getenv("SOLANA_RPC_URL")
	if urls := os.Getenv("SOLANA_RPC_URLS"); urls != "" {
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		selected, err := solanapkg.SelectEndpoint(probeCtx, strings.Split(urls, ","), 2*time.Second)
		cancel()
		if err != nil {
			log.Println("RPC endpoint probe failed, falling back:", err)
		} else {
			rpcURL = selected
			log.Println("Selected RPC endpoint:", selected)
		}
	}
	if rpcURL == "" {
		rpcURL = rpc.DevNet_RPC
	}
	client := rpc.New(rpcURL)

	keystoreDir := os.Getenv("KEYSTORE_DIR")
	if keystoreDir == "" {
		keystoreDir = solanapkg.DefaultKeystoreDir
	}
	password := os.Getenv("KEYSTORE_PASSWORD")
	if password == "" {
		log.Fatal("KEYSTORE_PASSWORD is required")
	}
	signer := solanapkg.NewKeystoreSigner(solanapkg.NewKeyManager(keystoreDir), password)

	transferrer := solanapkg.NewTransferrer(client, signer, 5)
	business.InitSettlement(transferrer, func(ctx context.Context, address string) (uint64, error) {
		return solanapkg.GetTokenAccountBalance(ctx, client, address)
	})
	business.MetadataLookup = func(ctx context.Context, mint string) (string, string, error) {
		pubkey, err := solana.PublicKeyFromBase58(mint)
		if err != nil {
			return "", "", err
		}
		meta, err := solanapkg.GetTokenMetadata(ctx, client, pubkey)
		if err != nil {
			return "", "", err
		}
		return meta.Name, meta.Symbol, nil
	}

	// Supply reconciliation against chain-reported numbers
	if apiKey := os.Getenv("HELIUS_API_KEY"); apiKey != "" {
		handlers.InitSupplyVerifier(helius.NewClient(apiKey))
		log.Println("Supply verification enabled")
	}

	// Set up router
	r := routes.SetupRouter()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
