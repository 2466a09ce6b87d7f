package anchor

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the subset of ethclient.Client the anchor needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// EthereumClient anchors a digest as the data of a zero-value transaction
// the signer sends to itself.
type EthereumClient struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
}

type EthereumConfig struct {
	RPCURL     string
	ChainID    int64
	PrivateKey string
}

func DialEthereum(ctx context.Context, cfg EthereumConfig) (*EthereumClient, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial anchor rpc: %w", err)
	}
	return NewEthereumClient(client, cfg.ChainID, cfg.PrivateKey)
}

func NewEthereumClient(backend Backend, chainID int64, privateKey string) (*EthereumClient, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid anchor private key: %w", err)
	}
	return &EthereumClient{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.NewEIP155Signer(big.NewInt(chainID)),
	}, nil
}

func (c *EthereumClient) Store(ctx context.Context, payload interface{}) (string, error) {
	digest, err := Digest(payload)
	if err != nil {
		return "", err
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	to := c.from
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &to, Data: digest})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     digest,
	})
	signed, err := types.SignTx(tx, c.signer, c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign anchor tx: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send anchor tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}

func (c *EthereumClient) Verify(ctx context.Context, txHash string, payload interface{}) (bool, error) {
	digest, err := Digest(payload)
	if err != nil {
		return false, err
	}

	tx, _, err := c.backend.TransactionByHash(ctx, common.HexToHash(txHash))
	if errors.Is(err, ethereum.NotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch anchor tx: %w", err)
	}
	return bytes.Equal(tx.Data(), digest), nil
}
