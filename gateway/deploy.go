package gateway

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/tokenledger"
)

// Deploy prepares the token side of a fresh deployment: the canonical
// asset controlled by authority, with the custodian registered as its
// minter, and the wrapped representation of the source token. Assets that
// already exist are left alone.
func (g *Gateway) Deploy(ctx context.Context, authority agreement.Address) error {
	book := g.Book()
	fields := logger.Fields{"authority": agreement.AddressHex(authority)}

	return g.run(ctx, "deploy", fields, func(tc *txContext) error {
		canonical := book.CanonicalAsset()
		_, err := tc.ledger.Asset(canonical)
		switch {
		case errors.Is(err, tokenledger.ErrAssetNotFound):
			if err := tc.ledger.CreateAsset(canonical, authority, g.cfg.Decimals); err != nil {
				return err
			}
			if err := tc.ledger.AddMinter(canonical, authority, book.Custodian()); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		_, err = tc.ledger.Asset(book.WrappedAsset(g.cfg.SourceChain, g.cfg.SourceToken))
		if errors.Is(err, tokenledger.ErrAssetNotFound) {
			_, err = tc.relay.AttestAsset(g.cfg.SourceChain, g.cfg.SourceToken, g.cfg.Decimals)
		}
		return err
	})
}

// PostTransfer stores an attested inbound transfer with the relay and
// returns the hash it can be redeemed under.
func (g *Gateway) PostTransfer(ctx context.Context, msg *agreement.TransferMessage) (common.Hash, error) {
	var hash common.Hash
	fields := logger.Fields{"sequence": msg.Sequence, "amount": msg.Amount}
	err := g.run(ctx, "post_transfer", fields, func(tc *txContext) error {
		h, err := tc.relay.PostMessage(msg)
		hash = h
		return err
	})
	return hash, err
}

// NewInboundTransfer builds a transfer of the source token addressed to
// this gateway on behalf of recipient.
func (g *Gateway) NewInboundTransfer(sequence, amount uint64, recipient agreement.Address) *agreement.TransferMessage {
	return &agreement.TransferMessage{
		EmitterChain: g.cfg.SourceChain,
		Sequence:     sequence,
		Amount:       amount,
		TokenChain:   g.cfg.SourceChain,
		TokenAddress: g.cfg.SourceToken,
		Redeemer:     g.Book().Custodian(),
		ToChain:      g.cfg.ChainID,
		Payload:      recipient[:],
	}
}
