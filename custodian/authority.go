package custodian

import "github.com/TEENet-io/wormhole-gateway/agreement"

func (c *Custodian) checkAuthority(caller agreement.Address) error {
	if caller != c.Authority {
		return ErrNotAuthority
	}
	return nil
}

// ProposeAuthority nominates a successor. A second proposal replaces the
// first.
func (c *Custodian) ProposeAuthority(caller, next agreement.Address) error {
	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	c.PendingAuthority = &next
	return nil
}

func (c *Custodian) CancelPendingAuthority(caller agreement.Address) error {
	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if c.PendingAuthority == nil {
		return ErrNoPendingChange
	}
	c.PendingAuthority = nil
	return nil
}

// AcceptAuthority completes a rotation. Only the nominee may accept.
func (c *Custodian) AcceptAuthority(caller agreement.Address) error {
	if c.PendingAuthority == nil || *c.PendingAuthority != caller {
		return ErrNotPendingAuthority
	}
	c.Authority = caller
	c.PendingAuthority = nil
	return nil
}

// SetMintingLimit overwrites the limit. The new limit may be below the
// minted amount, in which case every later inbound transfer forwards
// until enough has been burned.
func (c *Custodian) SetMintingLimit(caller agreement.Address, limit uint64) error {
	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	c.MintingLimit = limit
	return nil
}
