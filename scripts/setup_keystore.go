//go:build ignore

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	log "github.com/sirupsen/logrus"

	pcsolana "presalecontrol/pkg/solana"
)

// Generates a custody authority keypair and stores it encrypted in the
// keystore directory, or imports an existing base58 private key.
//
// Usage:
//   go run scripts/setup_keystore.go -password <pw>
//   go run scripts/setup_keystore.go -password <pw> -import <base58-private-key>
func main() {
	password := flag.String("password", "", "Keystore encryption password")
	importKey := flag.String("import", "", "Optional base58 private key to import instead of generating")
	keystoreDir := flag.String("keystore-dir", pcsolana.DefaultKeystoreDir, "Keystore directory")
	flag.Parse()

	if *password == "" {
		log.Error("Keystore password is required")
		fmt.Println("Usage example: go run scripts/setup_keystore.go -password mysecret")
		os.Exit(1)
	}

	km := pcsolana.NewKeyManager(*keystoreDir)

	var account *types.Account
	if *importKey != "" {
		imported, err := types.AccountFromBase58(*importKey)
		if err != nil {
			log.Fatalf("Failed to parse private key: %v", err)
		}
		account = &imported
	} else {
		generated, err := km.GenerateKeyPair()
		if err != nil {
			log.Fatalf("Failed to generate keypair: %v", err)
		}
		account = generated
	}

	if err := km.SaveKeyStoreEntry(account, *password); err != nil {
		log.Fatalf("Failed to save keystore entry: %v", err)
	}

	fmt.Printf("Keystore entry saved for address: %s\n", account.PublicKey.ToBase58())
}
