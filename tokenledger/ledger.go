package tokenledger

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/common"
	"github.com/TEENet-io/wormhole-gateway/database"
)

var (
	ErrAssetNotFound     = errors.New("asset not found")
	ErrAssetExists       = errors.New("asset already exists")
	ErrAccountExists     = errors.New("token account already exists")
	ErrAssetMismatch     = errors.New("token accounts hold different assets")
	ErrNotMinter         = errors.New("signer is not a minter of the asset")
	ErrUnauthorized      = errors.New("signer is neither owner nor approved delegate")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("amount overflow")
	ErrZeroAddress       = errors.New("zero address")
)

// Asset is a fungible token definition. Authority manages its minters.
type Asset struct {
	Address   agreement.Address
	Authority agreement.Address
	Decimals  uint8
	Supply    uint64
}

// Ledger is a sqlite token program. All access goes through a Session.
type Ledger struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewLedger(db *sql.DB) (*Ledger, error) {
	if _, err := db.Exec(assetTable + minterTable + tokenAccountTable); err != nil {
		return nil, err
	}

	sc := database.NewStmtCache(db)
	if err := sc.PrepareAll(allQueries...); err != nil {
		return nil, err
	}

	return &Ledger{db: db, stmtCache: sc}, nil
}

func (l *Ledger) Close() {
	l.stmtCache.Clear()
}

func (l *Ledger) Session(r database.Runner) *Session {
	return &Session{l: l, r: r}
}

func (l *Ledger) Reader() *Session {
	return l.Session(l.db)
}

// Session implements agreement.TokenLedger on top of r.
type Session struct {
	l *Ledger
	r database.Runner
}

var _ agreement.TokenLedger = (*Session)(nil)

func (s *Session) stmt(query string) (*sql.Stmt, error) {
	return s.l.stmtCache.Stmt(s.r, query)
}

func hexOf(a agreement.Address) string {
	return agreement.AddressHex(a)
}

func parseAddr(s string) (agreement.Address, error) {
	return agreement.ParseAddress(s)
}

func (s *Session) CreateAsset(asset, authority agreement.Address, decimals uint8) error {
	if asset == agreement.ZeroAddress || authority == agreement.ZeroAddress {
		return ErrZeroAddress
	}

	stmt, err := s.stmt(queryInsertAsset)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(hexOf(asset), hexOf(authority), decimals, common.Uint64ToHexStr(0)); err != nil {
		if database.IsConstraintErr(err) {
			return ErrAssetExists
		}
		return err
	}

	logger.WithFields(logger.Fields{
		"asset":     common.Shorten(hexOf(asset), 4),
		"authority": common.Shorten(hexOf(authority), 4),
	}).Debug("asset created")
	return nil
}

func (s *Session) Asset(asset agreement.Address) (*Asset, error) {
	stmt, err := s.stmt(queryAsset)
	if err != nil {
		return nil, err
	}

	var (
		addr, authority, supply string
		decimals                uint8
	)
	if err := stmt.QueryRow(hexOf(asset)).Scan(&addr, &authority, &decimals, &supply); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	a := &Asset{Decimals: decimals}
	if a.Address, err = parseAddr(addr); err != nil {
		return nil, err
	}
	if a.Authority, err = parseAddr(authority); err != nil {
		return nil, err
	}
	if a.Supply, err = common.HexStrToUint64(supply); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Session) setSupply(asset agreement.Address, supply uint64) error {
	stmt, err := s.stmt(queryUpdateSupply)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(common.Uint64ToHexStr(supply), hexOf(asset))
	return err
}

// AddMinter lets minter issue asset. Only the asset authority may call it.
func (s *Session) AddMinter(asset, authority, minter agreement.Address) error {
	a, err := s.Asset(asset)
	if err != nil {
		return err
	}
	if a.Authority != authority {
		return ErrUnauthorized
	}

	stmt, err := s.stmt(queryInsertMinter)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(hexOf(asset), hexOf(minter))
	return err
}

func (s *Session) RemoveMinter(asset, authority, minter agreement.Address) error {
	a, err := s.Asset(asset)
	if err != nil {
		return err
	}
	if a.Authority != authority {
		return ErrUnauthorized
	}

	stmt, err := s.stmt(queryDeleteMinter)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(hexOf(asset), hexOf(minter))
	return err
}

func (s *Session) IsMinter(asset, minter agreement.Address) (bool, error) {
	stmt, err := s.stmt(queryIsMinter)
	if err != nil {
		return false, err
	}

	var one int
	if err := stmt.QueryRow(hexOf(asset), hexOf(minter)).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanAccount(scan func(dest ...any) error) (*agreement.TokenAccount, error) {
	var (
		addr, asset, owner, amount, delegated string
		delegate                              sql.NullString
	)
	if err := scan(&addr, &asset, &owner, &amount, &delegate, &delegated); err != nil {
		return nil, err
	}

	var (
		acct = &agreement.TokenAccount{}
		err  error
	)
	if acct.Address, err = parseAddr(addr); err != nil {
		return nil, err
	}
	if acct.Asset, err = parseAddr(asset); err != nil {
		return nil, err
	}
	if acct.Owner, err = parseAddr(owner); err != nil {
		return nil, err
	}
	if acct.Amount, err = common.HexStrToUint64(amount); err != nil {
		return nil, err
	}
	if delegate.Valid {
		if acct.Delegate, err = parseAddr(delegate.String); err != nil {
			return nil, err
		}
	}
	if acct.DelegatedAmount, err = common.HexStrToUint64(delegated); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *Session) Account(addr agreement.Address) (*agreement.TokenAccount, error) {
	stmt, err := s.stmt(queryAccount)
	if err != nil {
		return nil, err
	}

	acct, err := scanAccount(stmt.QueryRow(hexOf(addr)).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, agreement.ErrAccountNotFound
		}
		return nil, err
	}
	return acct, nil
}

// AccountsByOwner lists every token account of owner.
func (s *Session) AccountsByOwner(owner agreement.Address) ([]*agreement.TokenAccount, error) {
	stmt, err := s.stmt(queryAccountsOwner)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(hexOf(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accts := []*agreement.TokenAccount{}
	for rows.Next() {
		acct, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accts = append(accts, acct)
	}
	return accts, rows.Err()
}

func (s *Session) CreateAccount(addr, asset, owner agreement.Address) error {
	if addr == agreement.ZeroAddress || owner == agreement.ZeroAddress {
		return ErrZeroAddress
	}
	if _, err := s.Asset(asset); err != nil {
		return err
	}

	stmt, err := s.stmt(queryInsertAccount)
	if err != nil {
		return err
	}
	zero := common.Uint64ToHexStr(0)
	if _, err := stmt.Exec(hexOf(addr), hexOf(asset), hexOf(owner), zero, zero); err != nil {
		if database.IsConstraintErr(err) {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

func (s *Session) setAmount(addr agreement.Address, amount uint64) error {
	stmt, err := s.stmt(queryUpdateAmount)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(common.Uint64ToHexStr(amount), hexOf(addr))
	return err
}

func (s *Session) setDelegate(addr, delegate agreement.Address, amount uint64) error {
	stmt, err := s.stmt(queryUpdateDelegate)
	if err != nil {
		return err
	}

	var d any
	if delegate != agreement.ZeroAddress {
		d = hexOf(delegate)
	}
	_, err = stmt.Exec(d, common.Uint64ToHexStr(amount), hexOf(addr))
	return err
}

func (s *Session) MintTo(asset, to, minter agreement.Address, amount uint64) error {
	ok, err := s.IsMinter(asset, minter)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMinter
	}

	a, err := s.Asset(asset)
	if err != nil {
		return err
	}
	acct, err := s.Account(to)
	if err != nil {
		return err
	}
	if acct.Asset != asset {
		return ErrAssetMismatch
	}
	if amount > math.MaxUint64-a.Supply {
		return fmt.Errorf("%w: supply", ErrOverflow)
	}

	// supply bounds every balance, so the balance cannot overflow here
	if err := s.setSupply(asset, a.Supply+amount); err != nil {
		return err
	}
	return s.setAmount(to, acct.Amount+amount)
}

// spend checks that authority may take amount out of acct and records
// the debit, consuming the delegate allowance when the delegate signs.
func (s *Session) spend(acct *agreement.TokenAccount, authority agreement.Address, amount uint64) error {
	delegated := false
	switch {
	case authority == acct.Owner:
	case acct.Delegate != agreement.ZeroAddress && authority == acct.Delegate:
		if acct.DelegatedAmount < amount {
			return fmt.Errorf("%w: allowance %d < %d", ErrInsufficientFunds, acct.DelegatedAmount, amount)
		}
		delegated = true
	default:
		return ErrUnauthorized
	}

	if acct.Amount < amount {
		return fmt.Errorf("%w: balance %d < %d", ErrInsufficientFunds, acct.Amount, amount)
	}

	if delegated {
		left := acct.DelegatedAmount - amount
		delegate := acct.Delegate
		if left == 0 {
			delegate = agreement.ZeroAddress
		}
		if err := s.setDelegate(acct.Address, delegate, left); err != nil {
			return err
		}
	}
	return s.setAmount(acct.Address, acct.Amount-amount)
}

func (s *Session) Burn(from, authority agreement.Address, amount uint64) error {
	acct, err := s.Account(from)
	if err != nil {
		return err
	}
	a, err := s.Asset(acct.Asset)
	if err != nil {
		return err
	}

	if err := s.spend(acct, authority, amount); err != nil {
		return err
	}
	return s.setSupply(a.Address, a.Supply-amount)
}

func (s *Session) Transfer(from, to, authority agreement.Address, amount uint64) error {
	src, err := s.Account(from)
	if err != nil {
		return err
	}
	dst, err := s.Account(to)
	if err != nil {
		return err
	}
	if src.Asset != dst.Asset {
		return ErrAssetMismatch
	}
	if from == to {
		return s.checkSpend(src, authority, amount)
	}

	if err := s.spend(src, authority, amount); err != nil {
		return err
	}
	return s.setAmount(to, dst.Amount+amount)
}

// checkSpend is spend for a self transfer, where no balance moves.
func (s *Session) checkSpend(acct *agreement.TokenAccount, authority agreement.Address, amount uint64) error {
	if err := s.spend(acct, authority, amount); err != nil {
		return err
	}
	return s.setAmount(acct.Address, acct.Amount)
}

func (s *Session) Approve(account, owner, delegate agreement.Address, amount uint64) error {
	acct, err := s.Account(account)
	if err != nil {
		return err
	}
	if acct.Owner != owner {
		return ErrUnauthorized
	}
	if amount == 0 {
		delegate = agreement.ZeroAddress
	}
	return s.setDelegate(account, delegate, amount)
}
