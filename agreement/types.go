// Golbal Agreement on types

package agreement

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk"
	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	mycommon "github.com/TEENet-io/wormhole-gateway/common"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidPayload    = errors.New("transfer payload must be a 32-byte recipient")
	ErrInvalidAddressHex = errors.New("address must be 32 bytes of hex")
)

// Address is an identity on the host ledger.
type Address = aptos.AccountAddress

// ZeroAddress is the all-zero identity. No account may be created there.
var ZeroAddress = Address{}

// ForeignAddress is an identity on a remote chain, left-padded to 32 bytes.
type ForeignAddress [32]byte

func (a ForeignAddress) IsZero() bool {
	return a == ForeignAddress{}
}

func (a ForeignAddress) Hex() string {
	return mycommon.ByteSliceToPureHexStr(a[:])
}

func (a ForeignAddress) String() string {
	return mycommon.Prepend0xPrefix(a.Hex())
}

func (a ForeignAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *ForeignAddress) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseForeignAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func (a *ForeignAddress) MarshalBCS(ser *bcs.Serializer) {
	ser.FixedBytes(a[:])
}

func (a *ForeignAddress) UnmarshalBCS(des *bcs.Deserializer) {
	des.ReadFixedBytesInto(a[:])
}

func ParseForeignAddress(s string) (ForeignAddress, error) {
	if !mycommon.IsHexBytes32(s) {
		return ForeignAddress{}, ErrInvalidAddressHex
	}
	return ForeignAddress(mycommon.HexStrToBytes32(s)), nil
}

// ParseAddress parses a full 32-byte hex host address (prefix optional).
func ParseAddress(s string) (Address, error) {
	if !mycommon.IsHexBytes32(s) {
		return Address{}, ErrInvalidAddressHex
	}
	return Address(mycommon.HexStrToBytes32(s)), nil
}

// AddressHex renders an address as 64 hex chars without prefix. It is used
// as the storage key everywhere, so special addresses are never shortened.
func AddressHex(a Address) string {
	return mycommon.ByteSliceToPureHexStr(a[:])
}

// TokenAccount is a balance of one asset held for one owner. A delegate,
// when set, may move up to DelegatedAmount on the owner's behalf.
type TokenAccount struct {
	Address         Address
	Asset           Address
	Owner           Address
	Amount          uint64
	Delegate        Address
	DelegatedAmount uint64
}

func (a *TokenAccount) String() string {
	return fmt.Sprintf("%+v", *a)
}

// TransferMessage is an attested inbound transfer carrying a payload
// addressed to a redeemer on this ledger.
type TransferMessage struct {
	EmitterChain   uint16
	EmitterAddress ForeignAddress
	Sequence       uint64
	Amount         uint64
	TokenChain     uint16
	TokenAddress   ForeignAddress
	Redeemer       Address
	ToChain        uint16
	FromAddress    ForeignAddress
	Payload        []byte
}

func (m *TransferMessage) MarshalBCS(ser *bcs.Serializer) {
	ser.U16(m.EmitterChain)
	ser.Struct(&m.EmitterAddress)
	ser.U64(m.Sequence)
	ser.U64(m.Amount)
	ser.U16(m.TokenChain)
	ser.Struct(&m.TokenAddress)
	ser.Struct(&m.Redeemer)
	ser.U16(m.ToChain)
	ser.Struct(&m.FromAddress)
	ser.WriteBytes(m.Payload)
}

func (m *TransferMessage) UnmarshalBCS(des *bcs.Deserializer) {
	m.EmitterChain = des.U16()
	des.Struct(&m.EmitterAddress)
	m.Sequence = des.U64()
	m.Amount = des.U64()
	m.TokenChain = des.U16()
	des.Struct(&m.TokenAddress)
	des.Struct(&m.Redeemer)
	m.ToChain = des.U16()
	des.Struct(&m.FromAddress)
	m.Payload = des.ReadBytes()
}

// Digest identifies the message: keccak256 over keccak256 of the BCS body.
func (m *TransferMessage) Digest() (common.Hash, error) {
	body, err := bcs.Serialize(m)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(crypto.Keccak256(body)), nil
}

// Recipient decodes the final recipient from the payload.
func (m *TransferMessage) Recipient() (Address, error) {
	if len(m.Payload) != 32 {
		return Address{}, ErrInvalidPayload
	}
	var addr Address
	copy(addr[:], m.Payload)
	return addr, nil
}

// OutboundTransfer asks the relay to move Amount of a wrapped asset out of
// From toward RecipientChain. Sender authorizes the message and must match
// the relay sender identity bound to From.
type OutboundTransfer struct {
	Sender         Address
	From           Address
	Asset          Address
	Amount         uint64
	RecipientChain uint16
	Recipient      ForeignAddress
	ArbiterFee     uint64
	Nonce          uint32
	Payload        []byte
}

// Event names as they appear in the event log.
const (
	EventReceived              = "Received"
	EventSent                  = "Sent"
	EventDeposited             = "Deposited"
	EventGatewayAddressUpdated = "GatewayAddressUpdated"
	EventMintingLimitUpdated   = "MintingLimitUpdated"
)

// Event is the envelope published for every notification.
type Event struct {
	Name string
	Data any
}

func (ev *Event) String() string {
	return fmt.Sprintf("%s%+v", ev.Name, ev.Data)
}

// ReceivedEvent: an inbound transfer was redeemed for Recipient.
type ReceivedEvent struct {
	Recipient Address `json:"recipient"`
	Amount    uint64  `json:"amount"`
}

// SentEvent: canonical tokens were burned and bridged out.
type SentEvent struct {
	Sender         Address        `json:"sender"`
	Amount         uint64         `json:"amount"`
	RecipientChain uint16         `json:"recipient_chain"`
	Gateway        ForeignAddress `json:"gateway"`
	Recipient      ForeignAddress `json:"recipient"`
	ArbiterFee     uint64         `json:"arbiter_fee"`
	Nonce          uint32         `json:"nonce"`
}

type DepositedEvent struct {
	Depositor Address `json:"depositor"`
	Amount    uint64  `json:"amount"`
}

type GatewayAddressUpdatedEvent struct {
	Chain   uint16         `json:"chain"`
	Gateway ForeignAddress `json:"gateway"`
}

type MintingLimitUpdatedEvent struct {
	MintingLimit uint64 `json:"minting_limit"`
}
