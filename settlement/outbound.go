package settlement

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
)

// SendRequest burns Amount of the canonical asset held by Sender and
// bridges the same amount of the wrapped asset to Recipient on
// RecipientChain.
type SendRequest struct {
	Sender         agreement.Address
	Amount         uint64
	RecipientChain uint16
	Recipient      agreement.ForeignAddress
	// Only used by SendWrapped.
	ArbiterFee uint64
	Nonce      uint32
}

// SendWrapped sends to a plain recipient. The relay pays ArbiterFee out of
// the amount to whoever redeems on the remote chain.
func (s *Settler) SendWrapped(c *custodian.Custodian, req *SendRequest) (uint64, error) {
	next := c.Clone()
	if err := s.burnAndPrepare(next, req, agreement.ForeignAddress{}, req.ArbiterFee); err != nil {
		return 0, err
	}

	seq, err := s.env.Relay.TransferWrapped(&agreement.OutboundTransfer{
		Sender:         next.RelaySender,
		From:           next.WrappedCustody,
		Asset:          next.WrappedAsset,
		Amount:         req.Amount,
		RecipientChain: req.RecipientChain,
		Recipient:      req.Recipient,
		ArbiterFee:     req.ArbiterFee,
		Nonce:          req.Nonce,
	})
	if err != nil {
		return 0, fmt.Errorf("transfer wrapped: %w", err)
	}

	s.logSent("wrapped", req, seq, next)
	*c = *next
	return seq, nil
}

// SendGateway sends to the gateway registered for RecipientChain, which
// releases the tokens to Recipient. The recipient travels as payload and
// no arbiter fee is paid.
func (s *Settler) SendGateway(c *custodian.Custodian, req *SendRequest) (uint64, error) {
	gw, ok, err := s.env.Gateways.GatewayAddress(req.RecipientChain)
	if err != nil {
		return 0, fmt.Errorf("load gateway: %w", err)
	}
	if !ok || gw.IsZero() {
		return 0, custodian.ErrUnknownGateway
	}

	next := c.Clone()
	if err := s.burnAndPrepare(next, req, gw, 0); err != nil {
		return 0, err
	}

	recipient := req.Recipient
	seq, err := s.env.Relay.TransferWrappedWithPayload(&agreement.OutboundTransfer{
		Sender:         next.RelaySender,
		From:           next.WrappedCustody,
		Asset:          next.WrappedAsset,
		Amount:         req.Amount,
		RecipientChain: req.RecipientChain,
		Recipient:      gw,
		Nonce:          req.Nonce,
		Payload:        recipient[:],
	})
	if err != nil {
		return 0, fmt.Errorf("transfer wrapped with payload: %w", err)
	}

	s.logSent("gateway", req, seq, next)
	*c = *next
	return seq, nil
}

func (s *Settler) validateSend(c *custodian.Custodian, req *SendRequest) error {
	if req.Recipient.IsZero() {
		return custodian.ErrZeroRecipient
	}
	if req.Amount == 0 {
		return custodian.ErrZeroAmount
	}

	custody, err := s.env.Ledger.Account(c.WrappedCustody)
	if err != nil {
		return fmt.Errorf("load custody: %w", err)
	}
	if custody.Amount < req.Amount {
		return custodian.ErrNotEnoughWrappedAsset
	}
	return nil
}

// burnAndPrepare decrements the minted counter, burns the sender's
// canonical tokens and lets the relay pull the wrapped tokens out of
// custody. It mutates c, which must be a clone. The gateway variant pays
// no arbiter fee.
func (s *Settler) burnAndPrepare(c *custodian.Custodian, req *SendRequest, gateway agreement.ForeignAddress, arbiterFee uint64) error {
	if err := s.validateSend(c, req); err != nil {
		return err
	}

	minted, err := c.CheckedSubMinted(req.Amount)
	if err != nil {
		return err
	}
	c.MintedAmount = minted

	from := s.env.Accounts.TokenAccount(req.Sender, c.CanonicalAsset)
	if err := s.env.Ledger.Burn(from, req.Sender, req.Amount); err != nil {
		return fmt.Errorf("burn canonical: %w", err)
	}

	s.emit(agreement.EventSent, &agreement.SentEvent{
		Sender:         req.Sender,
		Amount:         req.Amount,
		RecipientChain: req.RecipientChain,
		Gateway:        gateway,
		Recipient:      req.Recipient,
		ArbiterFee:     arbiterFee,
		Nonce:          req.Nonce,
	})

	if err := s.env.Ledger.Approve(c.WrappedCustody, c.Address, s.env.Relay.TransferAuthority(), req.Amount); err != nil {
		return fmt.Errorf("approve transfer authority: %w", err)
	}
	return nil
}

func (s *Settler) logSent(variant string, req *SendRequest, seq uint64, c *custodian.Custodian) {
	logger.WithFields(logger.Fields{
		"variant":  variant,
		"sender":   agreement.AddressHex(req.Sender),
		"chain":    req.RecipientChain,
		"amount":   req.Amount,
		"sequence": seq,
		"minted":   c.MintedAmount,
	}).Debug("outbound transfer sent")
}
