package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TEENet-io/wormhole-gateway/addressing"
	"github.com/TEENet-io/wormhole-gateway/agreement"
	"github.com/TEENet-io/wormhole-gateway/custodian"
	"github.com/TEENet-io/wormhole-gateway/database"
)

var (
	ErrNotFound      = errors.New("account not found")
	ErrAccountExists = errors.New("account already exists")
)

// EventRecord is one row of the event log.
type EventRecord struct {
	ID   int64           `json:"id"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// StateDB stores the custodian record, the gateway registry and the event
// log. Reads and writes go through a Session bound to a db or a tx.
type StateDB struct {
	book      *addressing.Book
	db        *sql.DB
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB, book *addressing.Book) (*StateDB, error) {
	// 1. Create the tables.
	if _, err := db.Exec(accountTable + eventTable); err != nil {
		return nil, err
	}

	// 2. A stmt cache + db.
	sc := database.NewStmtCache(db)
	if err := sc.PrepareAll(allQueries...); err != nil {
		return nil, err
	}

	return &StateDB{
		book:      book,
		db:        db,
		stmtCache: sc,
	}, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

// Session binds the store to r, usually the transaction of one request.
func (st *StateDB) Session(r database.Runner) *Session {
	return &Session{st: st, r: r}
}

// Reader is a session on the bare db, for read-only callers.
func (st *StateDB) Reader() *Session {
	return st.Session(st.db)
}

type Session struct {
	st *StateDB
	r  database.Runner
}

func (s *Session) stmt(query string) (*sql.Stmt, error) {
	return s.st.stmtCache.Stmt(s.r, query)
}

func (s *Session) loadAccount(addr agreement.Address, kind string) ([]byte, error) {
	stmt, err := s.stmt(queryAccountByAddress)
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := stmt.QueryRow(agreement.AddressHex(addr), kind).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// LoadCustodian returns custodian.ErrNotInitialized when the record has
// not been created yet.
func (s *Session) LoadCustodian() (*custodian.Custodian, error) {
	data, err := s.loadAccount(s.st.book.Custodian(), KindCustodian)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, custodian.ErrNotInitialized
		}
		return nil, err
	}
	return custodian.Decode(data)
}

// CreateCustodian writes the record once. A second call fails with
// custodian.ErrAlreadyInitialized.
func (s *Session) CreateCustodian(c *custodian.Custodian) error {
	if c.Address != s.st.book.Custodian() {
		return fmt.Errorf("custodian address mismatch: %s", agreement.AddressHex(c.Address))
	}

	data, err := c.Encode()
	if err != nil {
		return err
	}

	stmt, err := s.stmt(queryInsertAccount)
	if err != nil {
		return err
	}
	if _, err := stmt.Exec(agreement.AddressHex(c.Address), KindCustodian, data); err != nil {
		if database.IsConstraintErr(err) {
			return custodian.ErrAlreadyInitialized
		}
		return err
	}
	return nil
}

func (s *Session) SaveCustodian(c *custodian.Custodian) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}

	stmt, err := s.stmt(queryUpdateAccount)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(data, agreement.AddressHex(c.Address), KindCustodian)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return custodian.ErrNotInitialized
	}
	return nil
}

func (s *Session) GatewayInfo(chain uint16) (*custodian.GatewayInfo, error) {
	data, err := s.loadAccount(s.st.book.GatewayInfo(chain), KindGatewayInfo)
	if err != nil {
		return nil, err
	}
	return custodian.DecodeGatewayInfo(data)
}

// GatewayAddress implements agreement.GatewayRegistry.
func (s *Session) GatewayAddress(chain uint16) (agreement.ForeignAddress, bool, error) {
	info, err := s.GatewayInfo(chain)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return agreement.ForeignAddress{}, false, nil
		}
		return agreement.ForeignAddress{}, false, err
	}
	return info.Address, true, nil
}

func (s *Session) PutGatewayInfo(info *custodian.GatewayInfo) error {
	data, err := info.Encode()
	if err != nil {
		return err
	}

	stmt, err := s.stmt(queryUpsertAccount)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(agreement.AddressHex(s.st.book.GatewayInfo(info.Chain)), KindGatewayInfo, data)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountExists
	}
	return nil
}

func (s *Session) GatewayInfos() ([]*custodian.GatewayInfo, error) {
	stmt, err := s.stmt(queryAccountsOfKind)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(KindGatewayInfo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*custodian.GatewayInfo
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		info, err := custodian.DecodeGatewayInfo(data)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// InsertEvent appends ev to the log and returns its id.
func (s *Session) InsertEvent(ev *agreement.Event) (int64, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return 0, fmt.Errorf("encode event %s: %w", ev.Name, err)
	}

	stmt, err := s.stmt(queryInsertEvent)
	if err != nil {
		return 0, err
	}
	res, err := stmt.Exec(ev.Name, string(data))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Events returns up to limit events with id greater than after.
func (s *Session) Events(after int64, limit int) ([]*EventRecord, error) {
	stmt, err := s.stmt(queryEventsAfter)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*EventRecord{}
	for rows.Next() {
		var (
			rec  EventRecord
			data string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &data); err != nil {
			return nil, err
		}
		rec.Data = json.RawMessage(data)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
