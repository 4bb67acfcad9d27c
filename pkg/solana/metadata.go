package solana

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TokenMetadata is the on-chain Metaplex metadata of a mint; used to fill in
// name and symbol when a supply record is initialized without them.
type TokenMetadata struct {
	Key                  uint8
	UpdateAuthority      solana.PublicKey
	Mint                 solana.PublicKey
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
}

// Metaplex borsh strings are length-prefixed and NUL-padded
func readMetaString(buf *bytes.Buffer) (string, error) {
	var strLen uint32
	if err := binary.Read(buf, binary.LittleEndian, &strLen); err != nil {
		return "", err
	}
	strBytes := make([]byte, strLen)
	if _, err := buf.Read(strBytes); err != nil {
		return "", err
	}
	return strings.TrimRight(string(strBytes), "\x00"), nil
}

// GetTokenMetadata reads the Metaplex metadata account of a mint.
func GetTokenMetadata(ctx context.Context, client *rpc.Client, mint solana.PublicKey) (*TokenMetadata, error) {
	metadataProgramID := solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// PDA seeds: ["metadata", programID, mint]
	seeds := [][]byte{
		[]byte("metadata"),
		metadataProgramID.Bytes(),
		mint.Bytes(),
	}

	metadataAddress, _, err := solana.FindProgramAddress(seeds, metadataProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive metadata address: %w", err)
	}

	accountInfo, err := client.GetAccountInfo(ctx, metadataAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	if accountInfo == nil || accountInfo.Value == nil || accountInfo.Value.Data == nil {
		return nil, fmt.Errorf("no metadata found for mint: %s", mint.String())
	}

	data := accountInfo.Value.Data.GetBinary()
	buf := bytes.NewBuffer(data)

	var meta TokenMetadata
	if err := binary.Read(buf, binary.LittleEndian, &meta.Key); err != nil {
		return nil, err
	}
	if _, err := buf.Read(meta.UpdateAuthority[:]); err != nil {
		return nil, err
	}
	if _, err := buf.Read(meta.Mint[:]); err != nil {
		return nil, err
	}

	if meta.Name, err = readMetaString(buf); err != nil {
		return nil, err
	}
	if meta.Symbol, err = readMetaString(buf); err != nil {
		return nil, err
	}
	if meta.Uri, err = readMetaString(buf); err != nil {
		return nil, err
	}

	if err := binary.Read(buf, binary.LittleEndian, &meta.SellerFeeBasisPoints); err != nil {
		return nil, err
	}

	return &meta, nil
}
