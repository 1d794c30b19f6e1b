package agreement

import (
	"github.com/ethereum/go-ethereum/common"
)

// TokenLedger is the host token program as seen by the gateway.
// Every call is authorized by the identity passed in, which the caller
// must be entitled to sign for.
type TokenLedger interface {
	// Account returns ErrAccountNotFound when nothing exists at addr.
	Account(addr Address) (*TokenAccount, error)

	// CreateAccount opens an empty account of asset owned by owner at addr.
	CreateAccount(addr, asset, owner Address) error

	// MintTo issues new units of asset into account to. minter must be a
	// registered minter of asset.
	MintTo(asset, to, minter Address, amount uint64) error

	// Burn destroys units held in from. authority is the owner or an
	// approved delegate within its allowance.
	Burn(from, authority Address, amount uint64) error

	// Transfer moves units between two accounts of the same asset.
	// authority is the owner of from or an approved delegate.
	Transfer(from, to, authority Address, amount uint64) error

	// Approve lets delegate move up to amount out of account. It replaces
	// any previous approval.
	Approve(account, owner, delegate Address, amount uint64) error
}

// Relay is the cross-chain messaging and attestation layer.
type Relay interface {
	// ClaimExists reports whether the message has already been redeemed.
	ClaimExists(hash common.Hash) (bool, error)

	// PostedTransfer returns the attested transfer under hash.
	PostedTransfer(hash common.Hash) (*TransferMessage, error)

	// CompleteTransferWithPayload redeems the message into custody. It
	// creates the claim marker and credits custody in one step, and fails
	// when the claim already exists or redeemer is not the addressee.
	CompleteTransferWithPayload(hash common.Hash, custody, redeemer Address) (*TransferMessage, error)

	// TransferWrapped bridges wrapped tokens out to a plain recipient.
	// It returns the sequence number of the outbound message.
	TransferWrapped(req *OutboundTransfer) (uint64, error)

	// TransferWrappedWithPayload bridges wrapped tokens out to a contract
	// on the remote chain, passing req.Payload along.
	TransferWrappedWithPayload(req *OutboundTransfer) (uint64, error)

	// TransferAuthority is the identity that custody must approve before
	// an outbound transfer.
	TransferAuthority() Address
}

// EventEmitter receives notifications in the order they are produced.
type EventEmitter interface {
	Emit(ev *Event)
}

// GatewayRegistry resolves the counterpart gateway on a remote chain.
type GatewayRegistry interface {
	// GatewayAddress returns the zero address and false when chain is not
	// registered.
	GatewayAddress(chain uint16) (ForeignAddress, bool, error)
}
