package cmd

import (
	"context"
	"encoding/binary"

	"github.com/aptos-labs/aptos-go-sdk"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/reporter"
	"github.com/TEENet-io/wormhole-gateway/settlement"
)

// GatewayUser's configuration
type GatewayUserConfig struct {
	GatewayParams

	DbFilePath  string // the server's db file
	AccountPriv string // private key of the user, hex

	// Status is read from the server's http reporter.
	HttpIp   string
	HttpPort string
}

// GatewayUser acts on the gateway with the identity of one key. Writes go
// through the shared db file, reads of the server's view go over http.
type GatewayUser struct {
	Account *aptos.Account
	Address agreement.Address

	stores *GatewayStores
	Reader *reporter.HttpReader
}

// Create a new GatewayUser object.
func NewGatewayUser(guc *GatewayUserConfig) (*GatewayUser, error) {
	priv, err := StringToPrivateKey(guc.AccountPriv)
	if err != nil {
		return nil, err
	}
	account, err := NewAccount(priv)
	if err != nil {
		return nil, err
	}

	stores, err := OpenGateway(guc.DbFilePath, &guc.GatewayParams)
	if err != nil {
		return nil, err
	}

	return &GatewayUser{
		Account: account,
		Address: account.AccountAddress(),
		stores:  stores,
		Reader:  reporter.NewHttpReader(guc.HttpIp, guc.HttpPort),
	}, nil
}

func (gu *GatewayUser) Close() {
	gu.stores.Close()
}

func (gu *GatewayUser) GetAddress() string {
	return common.Prepend0xPrefix(agreement.AddressHex(gu.Address))
}

// GetBalances returns the canonical and wrapped balances of the user.
func (gu *GatewayUser) GetBalances() (uint64, uint64, error) {
	return gu.stores.Gateway.Balances(gu.Address)
}

func (gu *GatewayUser) GetCustodian() (*custodian.Custodian, error) {
	return gu.stores.Gateway.Custodian()
}

// PostInbound posts an attested transfer of amount source tokens to the
// user, as the relay would after the guardians signed it. The returned
// hash is what Redeem takes.
func (gu *GatewayUser) PostInbound(ctx context.Context, amount uint64) (ethcommon.Hash, error) {
	g := gu.stores.Gateway
	sequence := binary.BigEndian.Uint64(common.RandBytes(8))
	msg := g.NewInboundTransfer(sequence, amount, gu.Address)
	return g.PostTransfer(ctx, msg)
}

// Redeem settles a posted transfer. Anyone may redeem, the tokens go to
// the recipient named in the transfer.
func (gu *GatewayUser) Redeem(ctx context.Context, hash ethcommon.Hash) (*settlement.Receipt, error) {
	r, err := gu.stores.Gateway.ReceiveTransfer(ctx, hash)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"path":   r.Path.String(),
		"amount": r.Amount,
	}).Debug("redeemed")
	return r, nil
}

func (gu *GatewayUser) sendRequest(amount uint64, chain uint16, recipient agreement.ForeignAddress) *settlement.SendRequest {
	return &settlement.SendRequest{
		Sender:         gu.Address,
		Amount:         amount,
		RecipientChain: chain,
		Recipient:      recipient,
		Nonce:          binary.BigEndian.Uint32(common.RandBytes(4)),
	}
}

// SendWrapped burns canonical tokens and sends the wrapped tokens back
// to recipient on chain. Returns the relay sequence.
func (gu *GatewayUser) SendWrapped(ctx context.Context, amount uint64, chain uint16, recipient agreement.ForeignAddress) (uint64, error) {
	return gu.stores.Gateway.SendWrapped(ctx, gu.sendRequest(amount, chain, recipient))
}

// SendGateway is SendWrapped addressed to the registered gateway of chain.
func (gu *GatewayUser) SendGateway(ctx context.Context, amount uint64, chain uint16, recipient agreement.ForeignAddress) (uint64, error) {
	return gu.stores.Gateway.SendGateway(ctx, gu.sendRequest(amount, chain, recipient))
}

// Deposit swaps wrapped tokens held by the user for canonical ones.
func (gu *GatewayUser) Deposit(ctx context.Context, amount uint64) error {
	return gu.stores.Gateway.DepositWrapped(ctx, gu.Address, amount)
}

// Admin operations. They fail NotAuthority unless the user is the authority.

func (gu *GatewayUser) ProposeAuthority(ctx context.Context, next agreement.Address) error {
	return gu.stores.Gateway.ProposeAuthority(ctx, gu.Address, next)
}

func (gu *GatewayUser) CancelPendingAuthority(ctx context.Context) error {
	return gu.stores.Gateway.CancelPendingAuthority(ctx, gu.Address)
}

func (gu *GatewayUser) AcceptAuthority(ctx context.Context) error {
	return gu.stores.Gateway.AcceptAuthority(ctx, gu.Address)
}

func (gu *GatewayUser) SetMintingLimit(ctx context.Context, limit uint64) error {
	return gu.stores.Gateway.SetMintingLimit(ctx, gu.Address, limit)
}

func (gu *GatewayUser) Pause(ctx context.Context) error {
	return gu.stores.Gateway.Pause(ctx, gu.Address)
}

func (gu *GatewayUser) Unpause(ctx context.Context) error {
	return gu.stores.Gateway.Unpause(ctx, gu.Address)
}

func (gu *GatewayUser) SetPaused(ctx context.Context, paused bool) error {
	return gu.stores.Gateway.SetPaused(ctx, gu.Address, paused)
}

func (gu *GatewayUser) UpdateGatewayAddress(ctx context.Context, chain uint16, addr agreement.ForeignAddress) error {
	return gu.stores.Gateway.UpdateGatewayAddress(ctx, gu.Address, chain, addr)
}
