package custodian

import "github.com/TEENet-io/wormhole-gateway/agreement"

// SetPaused is the raw toggle. It does not care about the current state.
func (c *Custodian) SetPaused(caller agreement.Address, paused bool) error {
	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	c.Paused = paused
	return nil
}

// Pause moves Active to Paused.
func (c *Custodian) Pause(caller agreement.Address) error {
	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if c.Paused {
		return ErrAlreadyPaused
	}
	c.Paused = true
	return nil
}

// Unpause moves Paused to Active.
func (c *Custodian) Unpause(caller agreement.Address) error {
	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if !c.Paused {
		return ErrIsNotPaused
	}
	c.Paused = false
	return nil
}

// RequireNotPaused gates issuance of the canonical asset.
func (c *Custodian) RequireNotPaused() error {
	if c.Paused {
		return ErrIsPaused
	}
	return nil
}
