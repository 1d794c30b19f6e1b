package addressing

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/TEENet-io/wormhole-gateway/agreement"
)

// Seeds of the deterministic addresses.
const (
	SeedCustodian         = "redeemer"
	SeedCustody           = "wrapped-token"
	SeedRelaySender       = "sender"
	SeedGatewayInfo       = "gateway-info"
	SeedCanonicalAsset    = "canonical-asset"
	SeedTransferAuthority = "authority_signer"
	SeedMintAuthority     = "mint_signer"
	SeedWrappedAsset      = "wrapped"
	SeedTokenAccount      = "token-account"
)

const derivationMarker = "ProgramDerivedAddress"

// Derive hashes a program identity and its seeds into an address no key
// can sign for. Each seed is length-prefixed so that seed boundaries
// cannot be shifted to produce a collision.
func Derive(program agreement.Address, seeds ...[]byte) agreement.Address {
	buf := make([]byte, 0, 64)
	buf = append(buf, program[:]...)
	for _, s := range seeds {
		buf = append(buf, byte(len(s)))
		buf = append(buf, s...)
	}
	buf = append(buf, derivationMarker...)

	return agreement.Address(crypto.Keccak256Hash(buf))
}

func chainSeed(chain uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, chain)
	return b
}

// Book derives every address the gateway uses from the identities of the
// three programs involved.
type Book struct {
	Gateway     agreement.Address
	TokenBridge agreement.Address
	Token       agreement.Address
}

// Custodian holds the ledger record and signs for custody, minting and
// outbound approvals. It is also the redeemer of inbound transfers.
func (b *Book) Custodian() agreement.Address {
	return Derive(b.Gateway, []byte(SeedCustodian))
}

func (b *Book) Custody() agreement.Address {
	return Derive(b.Gateway, []byte(SeedCustody))
}

func (b *Book) RelaySender() agreement.Address {
	return Derive(b.Gateway, []byte(SeedRelaySender))
}

func (b *Book) GatewayInfo(chain uint16) agreement.Address {
	return Derive(b.Gateway, []byte(SeedGatewayInfo), chainSeed(chain))
}

func (b *Book) CanonicalAsset() agreement.Address {
	return Derive(b.Gateway, []byte(SeedCanonicalAsset))
}

func (b *Book) TransferAuthority() agreement.Address {
	return Derive(b.TokenBridge, []byte(SeedTransferAuthority))
}

// MintAuthority issues every wrapped asset created by the relay.
func (b *Book) MintAuthority() agreement.Address {
	return Derive(b.TokenBridge, []byte(SeedMintAuthority))
}

// WrappedAsset is the host representation of token from chain.
func (b *Book) WrappedAsset(chain uint16, token agreement.ForeignAddress) agreement.Address {
	return Derive(b.TokenBridge, []byte(SeedWrappedAsset), chainSeed(chain), token[:])
}

// TokenAccount is the associated account of owner for asset.
func (b *Book) TokenAccount(owner, asset agreement.Address) agreement.Address {
	return Derive(b.Token, []byte(SeedTokenAccount), owner[:], asset[:])
}
