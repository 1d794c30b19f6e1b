package settlement

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
)

// DepositWrapped swaps wrapped tokens already held by depositor for the
// canonical asset. Unlike the inbound flow it fails instead of forwarding
// when the limit would be exceeded.
func (s *Settler) DepositWrapped(c *custodian.Custodian, depositor agreement.Address, amount uint64) error {
	if amount == 0 {
		return custodian.ErrZeroAmount
	}
	if err := c.RequireNotPaused(); err != nil {
		return err
	}

	next := c.Clone()
	minted, err := next.CheckedAddMinted(amount)
	if err != nil {
		return err
	}

	from := s.env.Accounts.TokenAccount(depositor, next.WrappedAsset)
	if err := s.env.Ledger.Transfer(from, next.WrappedCustody, depositor, amount); err != nil {
		return fmt.Errorf("move wrapped into custody: %w", err)
	}

	next.MintedAmount = minted

	to := s.env.Accounts.TokenAccount(depositor, next.CanonicalAsset)
	if err := s.ensureAccount(to, next.CanonicalAsset, depositor); err != nil {
		return fmt.Errorf("open depositor canonical account: %w", err)
	}
	if err := s.env.Ledger.MintTo(next.CanonicalAsset, to, next.Address, amount); err != nil {
		return fmt.Errorf("mint canonical: %w", err)
	}

	s.emit(agreement.EventDeposited, &agreement.DepositedEvent{Depositor: depositor, Amount: amount})

	logger.WithFields(logger.Fields{
		"depositor": agreement.AddressHex(depositor),
		"amount":    amount,
		"minted":    next.MintedAmount,
	}).Debug("wrapped deposit settled")

	*c = *next
	return nil
}
