package settlement

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
)

// Receipt describes a settled inbound transfer.
type Receipt struct {
	MessageHash common.Hash
	Path        Path
	Recipient   agreement.Address
	// Token account that received the funds.
	Account agreement.Address
	Amount  uint64
}

// Receive redeems the attested transfer under hash and settles it to the
// recipient named in its payload, minting the canonical asset when the
// limit allows and forwarding the wrapped asset otherwise.
func (s *Settler) Receive(c *custodian.Custodian, hash common.Hash) (*Receipt, error) {
	msg, err := s.env.Relay.PostedTransfer(hash)
	if err != nil {
		return nil, fmt.Errorf("load posted transfer: %w", err)
	}

	claimed, err := s.env.Relay.ClaimExists(hash)
	if err != nil {
		return nil, fmt.Errorf("check claim: %w", err)
	}
	if claimed {
		return nil, custodian.ErrTransferAlreadyRedeemed
	}

	if msg.TokenChain != s.env.SourceChain || msg.TokenAddress != s.env.SourceToken {
		return nil, custodian.ErrInvalidSourceAsset
	}
	if msg.Amount == 0 {
		return nil, custodian.ErrNoAmountTransferred
	}

	recipient, err := msg.Recipient()
	if err != nil {
		if errors.Is(err, agreement.ErrInvalidPayload) {
			return nil, custodian.ErrInvalidTransferPayload
		}
		return nil, err
	}
	if recipient == agreement.ZeroAddress {
		return nil, custodian.ErrRecipientZeroAddress
	}

	next := c.Clone()
	decision := Select(next.MintedAmount, next.MintingLimit, msg.Amount)

	// Checked ahead of the redeem so that a rejected transfer stays
	// claimable once the gateway is unpaused.
	if decision.Path == MintPath {
		if err := next.RequireNotPaused(); err != nil {
			return nil, err
		}
	}

	redeemed, err := s.env.Relay.CompleteTransferWithPayload(hash, next.WrappedCustody, next.Address)
	if err != nil {
		return nil, fmt.Errorf("complete transfer: %w", err)
	}
	amount := redeemed.Amount

	s.emit(agreement.EventReceived, &agreement.ReceivedEvent{Recipient: recipient, Amount: amount})

	receipt := &Receipt{
		MessageHash: hash,
		Path:        decision.Path,
		Recipient:   recipient,
		Amount:      amount,
	}

	switch decision.Path {
	case ForwardPath:
		receipt.Account = s.env.Accounts.TokenAccount(recipient, next.WrappedAsset)
		if err := s.ensureAccount(receipt.Account, next.WrappedAsset, recipient); err != nil {
			return nil, fmt.Errorf("open recipient wrapped account: %w", err)
		}
		if err := s.env.Ledger.Transfer(next.WrappedCustody, receipt.Account, next.Address, amount); err != nil {
			return nil, fmt.Errorf("forward wrapped: %w", err)
		}
	case MintPath:
		next.MintedAmount = decision.Minted
		receipt.Account = s.env.Accounts.TokenAccount(recipient, next.CanonicalAsset)
		if err := s.ensureAccount(receipt.Account, next.CanonicalAsset, recipient); err != nil {
			return nil, fmt.Errorf("open recipient canonical account: %w", err)
		}
		if err := s.env.Ledger.MintTo(next.CanonicalAsset, receipt.Account, next.Address, amount); err != nil {
			return nil, fmt.Errorf("mint canonical: %w", err)
		}
	}

	logger.WithFields(logger.Fields{
		"hash":      hash.String(),
		"path":      decision.Path.String(),
		"recipient": agreement.AddressHex(recipient),
		"amount":    amount,
		"minted":    next.MintedAmount,
	}).Debug("inbound transfer settled")

	*c = *next
	return receipt, nil
}
