package custodian

import (
	"fmt"
	"math"

	"github.com/aptos-labs/aptos-go-sdk/bcs"

	"github.com/TEENet-io/wormhole-gateway/agreement"
)

const CurrentVersion uint8 = 1

// Custodian is the single ledger record of the gateway. It is created once
// and lives at a derived address for the lifetime of the deployment.
type Custodian struct {
	Version uint8

	Authority        agreement.Address
	PendingAuthority *agreement.Address

	// Set at initialization, never changed.
	CanonicalAsset agreement.Address
	WrappedAsset   agreement.Address
	WrappedCustody agreement.Address
	RelaySender    agreement.Address
	// Address of the record itself. It signs as custody owner, minter and
	// redeemer of inbound transfers.
	Address agreement.Address

	MintingLimit uint64
	MintedAmount uint64
	Paused       bool
}

// New returns an active record with nothing minted.
func New(authority, self, canonical, wrapped, custody, sender agreement.Address, mintingLimit uint64) *Custodian {
	return &Custodian{
		Version:        CurrentVersion,
		Authority:      authority,
		CanonicalAsset: canonical,
		WrappedAsset:   wrapped,
		WrappedCustody: custody,
		RelaySender:    sender,
		Address:        self,
		MintingLimit:   mintingLimit,
	}
}

// Clone returns a deep copy. Flows mutate a clone and swap it in only
// when every step succeeded.
func (c *Custodian) Clone() *Custodian {
	cp := *c
	if c.PendingAuthority != nil {
		p := *c.PendingAuthority
		cp.PendingAuthority = &p
	}
	return &cp
}

func (c *Custodian) String() string {
	pending := "none"
	if c.PendingAuthority != nil {
		pending = agreement.AddressHex(*c.PendingAuthority)
	}
	return fmt.Sprintf("{authority=%s pending=%s limit=%d minted=%d paused=%v}",
		agreement.AddressHex(c.Authority), pending, c.MintingLimit, c.MintedAmount, c.Paused)
}

// Headroom is how much can still be minted before reaching the limit.
func (c *Custodian) Headroom() uint64 {
	if c.MintedAmount >= c.MintingLimit {
		return 0
	}
	return c.MintingLimit - c.MintedAmount
}

// CheckedAddMinted returns minted + amount, failing on overflow or when
// the result is above the limit.
func (c *Custodian) CheckedAddMinted(amount uint64) (uint64, error) {
	if amount > math.MaxUint64-c.MintedAmount {
		return 0, ErrMintedAmountOverflow
	}
	sum := c.MintedAmount + amount
	if sum > c.MintingLimit {
		return 0, ErrMintingLimitExceeded
	}
	return sum, nil
}

// CheckedSubMinted returns minted - amount, failing when amount is larger
// than what was minted.
func (c *Custodian) CheckedSubMinted(amount uint64) (uint64, error) {
	if amount > c.MintedAmount {
		return 0, ErrMintedAmountUnderflow
	}
	return c.MintedAmount - amount, nil
}

func (c *Custodian) MarshalBCS(ser *bcs.Serializer) {
	ser.U8(c.Version)
	ser.Struct(&c.Authority)
	ser.Bool(c.PendingAuthority != nil)
	if c.PendingAuthority != nil {
		ser.Struct(c.PendingAuthority)
	}
	ser.Struct(&c.CanonicalAsset)
	ser.Struct(&c.WrappedAsset)
	ser.Struct(&c.WrappedCustody)
	ser.Struct(&c.RelaySender)
	ser.Struct(&c.Address)
	ser.U64(c.MintingLimit)
	ser.U64(c.MintedAmount)
	ser.Bool(c.Paused)
}

func (c *Custodian) UnmarshalBCS(des *bcs.Deserializer) {
	c.Version = des.U8()
	des.Struct(&c.Authority)
	c.PendingAuthority = nil
	if des.Bool() {
		p := agreement.Address{}
		des.Struct(&p)
		c.PendingAuthority = &p
	}
	des.Struct(&c.CanonicalAsset)
	des.Struct(&c.WrappedAsset)
	des.Struct(&c.WrappedCustody)
	des.Struct(&c.RelaySender)
	des.Struct(&c.Address)
	c.MintingLimit = des.U64()
	c.MintedAmount = des.U64()
	c.Paused = des.Bool()
}

func (c *Custodian) Encode() ([]byte, error) {
	return bcs.Serialize(c)
}

func Decode(b []byte) (*Custodian, error) {
	c := &Custodian{}
	if err := bcs.Deserialize(c, b); err != nil {
		return nil, fmt.Errorf("decode custodian: %w", err)
	}
	if c.Version != CurrentVersion {
		return nil, fmt.Errorf("decode custodian: unsupported version %d", c.Version)
	}
	return c, nil
}
