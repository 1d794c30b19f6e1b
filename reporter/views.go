package reporter

import (
	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/relay"
)

// Wire views of the gateway state. Addresses are 0x-prefixed hex and
// amounts are plain numbers.

type CustodianView struct {
	Authority        string `json:"authority"`
	PendingAuthority string `json:"pending_authority,omitempty"`
	Address          string `json:"address"`
	CanonicalAsset   string `json:"canonical_asset"`
	WrappedAsset     string `json:"wrapped_asset"`
	WrappedCustody   string `json:"wrapped_custody"`
	RelaySender      string `json:"relay_sender"`
	MintingLimit     uint64 `json:"minting_limit"`
	MintedAmount     uint64 `json:"minted_amount"`
	Headroom         uint64 `json:"headroom"`
	Paused           bool   `json:"paused"`
}

type GatewayView struct {
	Chain   uint16 `json:"chain"`
	Gateway string `json:"gateway"`
}

type ClaimView struct {
	Hash    string `json:"hash"`
	Claimed bool   `json:"claimed"`
}

type AccountView struct {
	Address         string `json:"address"`
	Asset           string `json:"asset"`
	Amount          uint64 `json:"amount"`
	Delegate        string `json:"delegate,omitempty"`
	DelegatedAmount uint64 `json:"delegated_amount,omitempty"`
}

type BalancesView struct {
	Owner     string         `json:"owner"`
	Canonical uint64         `json:"canonical"`
	Wrapped   uint64         `json:"wrapped"`
	Accounts  []*AccountView `json:"accounts"`
}

type OutboundView struct {
	Sequence       uint64 `json:"sequence"`
	Sender         string `json:"sender"`
	Asset          string `json:"asset"`
	Amount         uint64 `json:"amount"`
	RecipientChain uint16 `json:"recipient_chain"`
	Recipient      string `json:"recipient"`
	ArbiterFee     uint64 `json:"arbiter_fee"`
	Nonce          uint32 `json:"nonce"`
	Payload        string `json:"payload,omitempty"`
}

func hexAddr(a agreement.Address) string {
	return common.Prepend0xPrefix(agreement.AddressHex(a))
}

func newCustodianView(c *custodian.Custodian) *CustodianView {
	v := &CustodianView{
		Authority:      hexAddr(c.Authority),
		Address:        hexAddr(c.Address),
		CanonicalAsset: hexAddr(c.CanonicalAsset),
		WrappedAsset:   hexAddr(c.WrappedAsset),
		WrappedCustody: hexAddr(c.WrappedCustody),
		RelaySender:    hexAddr(c.RelaySender),
		MintingLimit:   c.MintingLimit,
		MintedAmount:   c.MintedAmount,
		Headroom:       c.Headroom(),
		Paused:         c.Paused,
	}
	if c.PendingAuthority != nil {
		v.PendingAuthority = hexAddr(*c.PendingAuthority)
	}
	return v
}

func newAccountView(a *agreement.TokenAccount) *AccountView {
	v := &AccountView{
		Address: hexAddr(a.Address),
		Asset:   hexAddr(a.Asset),
		Amount:  a.Amount,
	}
	if a.Delegate != agreement.ZeroAddress {
		v.Delegate = hexAddr(a.Delegate)
		v.DelegatedAmount = a.DelegatedAmount
	}
	return v
}

func newOutboundView(r *relay.OutboundRecord) *OutboundView {
	v := &OutboundView{
		Sequence:       r.Sequence,
		Sender:         hexAddr(r.Sender),
		Asset:          hexAddr(r.Asset),
		Amount:         r.Amount,
		RecipientChain: r.RecipientChain,
		Recipient:      r.Recipient.String(),
		ArbiterFee:     r.ArbiterFee,
		Nonce:          r.Nonce,
	}
	if len(r.Payload) > 0 {
		v.Payload = common.Prepend0xPrefix(common.ByteSliceToPureHexStr(r.Payload))
	}
	return v
}
