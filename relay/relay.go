package relay

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aptos-labs/aptos-go-sdk/bcs"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/addressing"
	"github.com/TEENet-io/wormhole-gateway/agreement"
	mycommon "github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/database"
)

var (
	ErrMessageNotFound = errors.New("posted message not found")
	ErrMessageExists   = errors.New("message already posted")
	ErrAlreadyClaimed  = errors.New("transfer already claimed")
	ErrInvalidRedeemer = errors.New("redeemer is not the addressee of the transfer")
	ErrWrongChain      = errors.New("transfer is not addressed to this chain")
	ErrFeeTooHigh      = errors.New("arbiter fee exceeds amount")
	ErrZeroAmount      = errors.New("zero amount")
	ErrZeroRecipient   = errors.New("zero recipient")
	ErrZeroSender      = errors.New("zero sender")
	ErrAssetMismatch   = errors.New("source account does not hold the asset")
)

// Ledger is what the relay needs from the token program.
type Ledger interface {
	agreement.TokenLedger
	CreateAsset(asset, authority agreement.Address, decimals uint8) error
	AddMinter(asset, authority, minter agreement.Address) error
}

// Config of the local relay.
type Config struct {
	// ChainID is the relay id of the host chain.
	ChainID uint16
}

// Relay is a sqlite stand-in for the cross-chain messaging layer: it keeps
// attested messages, claim markers and the outbound queue.
type Relay struct {
	cfg       *Config
	book      *addressing.Book
	db        *sql.DB
	stmtCache *database.StmtCache
}

func New(db *sql.DB, cfg *Config, book *addressing.Book) (*Relay, error) {
	if _, err := db.Exec(postedMessageTable + claimTable + outboundTable); err != nil {
		return nil, err
	}

	sc := database.NewStmtCache(db)
	if err := sc.PrepareAll(allQueries...); err != nil {
		return nil, err
	}

	return &Relay{cfg: cfg, book: book, db: db, stmtCache: sc}, nil
}

func (r *Relay) Close() {
	r.stmtCache.Clear()
}

// Session binds the relay to a runner and to the token ledger view of the
// same transaction.
func (r *Relay) Session(run database.Runner, ledger Ledger) *Session {
	return &Session{r: r, run: run, ledger: ledger}
}

type Session struct {
	r      *Relay
	run    database.Runner
	ledger Ledger
}

var _ agreement.Relay = (*Session)(nil)

func (s *Session) stmt(query string) (*sql.Stmt, error) {
	return s.r.stmtCache.Stmt(s.run, query)
}

func (s *Session) TransferAuthority() agreement.Address {
	return s.r.book.TransferAuthority()
}

// AttestAsset creates the wrapped representation of token from chain.
func (s *Session) AttestAsset(chain uint16, token agreement.ForeignAddress, decimals uint8) (agreement.Address, error) {
	wrapped := s.r.book.WrappedAsset(chain, token)
	mint := s.r.book.MintAuthority()

	if err := s.ledger.CreateAsset(wrapped, mint, decimals); err != nil {
		return agreement.Address{}, err
	}
	if err := s.ledger.AddMinter(wrapped, mint, mint); err != nil {
		return agreement.Address{}, err
	}

	logger.WithFields(logger.Fields{
		"chain":   chain,
		"token":   token.String(),
		"wrapped": agreement.AddressHex(wrapped),
	}).Info("wrapped asset attested")
	return wrapped, nil
}

// PostMessage stores an attested transfer and returns its hash.
func (s *Session) PostMessage(msg *agreement.TransferMessage) (common.Hash, error) {
	hash, err := msg.Digest()
	if err != nil {
		return common.Hash{}, err
	}
	data, err := bcs.Serialize(msg)
	if err != nil {
		return common.Hash{}, err
	}

	stmt, err := s.stmt(queryInsertPosted)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := stmt.Exec(
		mycommon.Trim0xPrefix(hash.Hex()),
		msg.EmitterChain,
		mycommon.Uint64ToHexStr(msg.Sequence),
		data,
	); err != nil {
		if database.IsConstraintErr(err) {
			return common.Hash{}, ErrMessageExists
		}
		return common.Hash{}, err
	}
	return hash, nil
}

func (s *Session) PostedTransfer(hash common.Hash) (*agreement.TransferMessage, error) {
	stmt, err := s.stmt(queryPosted)
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := stmt.QueryRow(mycommon.Trim0xPrefix(hash.Hex())).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	msg := &agreement.TransferMessage{}
	if err := bcs.Deserialize(msg, data); err != nil {
		return nil, fmt.Errorf("decode posted message: %w", err)
	}
	return msg, nil
}

func (s *Session) ClaimExists(hash common.Hash) (bool, error) {
	stmt, err := s.stmt(queryClaim)
	if err != nil {
		return false, err
	}

	var one int
	if err := stmt.QueryRow(mycommon.Trim0xPrefix(hash.Hex())).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Session) CompleteTransferWithPayload(hash common.Hash, custody, redeemer agreement.Address) (*agreement.TransferMessage, error) {
	msg, err := s.PostedTransfer(hash)
	if err != nil {
		return nil, err
	}
	if msg.Redeemer != redeemer {
		return nil, ErrInvalidRedeemer
	}
	if msg.ToChain != s.r.cfg.ChainID {
		return nil, ErrWrongChain
	}

	stmt, err := s.stmt(queryInsertClaim)
	if err != nil {
		return nil, err
	}
	if _, err := stmt.Exec(mycommon.Trim0xPrefix(hash.Hex())); err != nil {
		if database.IsConstraintErr(err) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	wrapped := s.r.book.WrappedAsset(msg.TokenChain, msg.TokenAddress)
	if err := s.ledger.MintTo(wrapped, custody, s.r.book.MintAuthority(), msg.Amount); err != nil {
		return nil, fmt.Errorf("credit custody: %w", err)
	}

	logger.WithFields(logger.Fields{
		"hash":   hash.String(),
		"amount": msg.Amount,
	}).Debug("transfer completed")
	return msg, nil
}

func (s *Session) TransferWrapped(req *agreement.OutboundTransfer) (uint64, error) {
	return s.transfer(req, false)
}

func (s *Session) TransferWrappedWithPayload(req *agreement.OutboundTransfer) (uint64, error) {
	return s.transfer(req, true)
}

func (s *Session) transfer(req *agreement.OutboundTransfer, withPayload bool) (uint64, error) {
	if req.Sender == agreement.ZeroAddress {
		return 0, ErrZeroSender
	}
	if req.Recipient.IsZero() {
		return 0, ErrZeroRecipient
	}
	if req.Amount == 0 {
		return 0, ErrZeroAmount
	}
	if req.ArbiterFee > req.Amount {
		return 0, ErrFeeTooHigh
	}

	var payload []byte
	if withPayload {
		payload = req.Payload
	}

	acct, err := s.ledger.Account(req.From)
	if err != nil {
		return 0, err
	}
	if acct.Asset != req.Asset {
		return 0, ErrAssetMismatch
	}

	// wrapped tokens leaving the host are burned, authorized by the
	// approval given to the transfer authority
	if err := s.ledger.Burn(req.From, s.TransferAuthority(), req.Amount); err != nil {
		return 0, fmt.Errorf("burn wrapped: %w", err)
	}

	seq, err := s.nextSequence()
	if err != nil {
		return 0, err
	}

	stmt, err := s.stmt(queryInsertOutbound)
	if err != nil {
		return 0, err
	}
	if _, err := stmt.Exec(
		seq,
		agreement.AddressHex(req.Sender),
		agreement.AddressHex(req.Asset),
		agreement.AddressHex(req.From),
		mycommon.Uint64ToHexStr(req.Amount),
		req.RecipientChain,
		req.Recipient.Hex(),
		mycommon.Uint64ToHexStr(req.ArbiterFee),
		req.Nonce,
		payload,
	); err != nil {
		return 0, err
	}

	logger.WithFields(logger.Fields{
		"sequence": seq,
		"chain":    req.RecipientChain,
		"amount":   req.Amount,
		"payload":  withPayload,
	}).Debug("outbound transfer queued")
	return seq, nil
}

func (s *Session) nextSequence() (uint64, error) {
	stmt, err := s.stmt(queryNextSequence)
	if err != nil {
		return 0, err
	}

	var seq int64
	if err := stmt.QueryRow().Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq), nil
}

// OutboundRecord is a queued outbound transfer.
type OutboundRecord struct {
	Sequence uint64
	agreement.OutboundTransfer
}

// Outbound lists up to limit queued transfers after sequence after.
func (s *Session) Outbound(after uint64, limit int) ([]*OutboundRecord, error) {
	stmt, err := s.stmt(queryOutbound)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(int64(after), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*OutboundRecord{}
	for rows.Next() {
		var (
			rec OutboundRecord
			seq int64

			sender, asset, source, amount, recipient, fee string
		)
		if err := rows.Scan(&seq, &sender, &asset, &source, &amount,
			&rec.RecipientChain, &recipient, &fee, &rec.Nonce, &rec.Payload); err != nil {
			return nil, err
		}

		rec.Sequence = uint64(seq)
		if rec.Sender, err = agreement.ParseAddress(sender); err != nil {
			return nil, err
		}
		if rec.Asset, err = agreement.ParseAddress(asset); err != nil {
			return nil, err
		}
		if rec.From, err = agreement.ParseAddress(source); err != nil {
			return nil, err
		}
		if rec.Recipient, err = agreement.ParseForeignAddress(recipient); err != nil {
			return nil, err
		}
		if rec.Amount, err = mycommon.HexStrToUint64(amount); err != nil {
			return nil, err
		}
		if rec.ArbiterFee, err = mycommon.HexStrToUint64(fee); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
