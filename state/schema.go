package state

import "strings"

const (
	KindCustodian   = "custodian"
	KindGatewayInfo = "gateway_info"
)

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// table that stores program-owned account data at derived addresses.
	// data is the BCS encoding of the record named by kind.
	accountTable = `CREATE TABLE IF NOT EXISTS account (
		address CHAR(64) PRIMARY KEY NOT NULL,
		kind VARCHAR(16) NOT NULL,
		data BLOB NOT NULL,
		CONSTRAINT chk_kind CHECK (kind IN ('` + KindCustodian + `', '` + KindGatewayInfo + `')),
		CONSTRAINT chk_address CHECK (address != '` + strZeroBytes32 + `')
	);`

	// append-only log of emitted notifications, data is json
	eventTable = `CREATE TABLE IF NOT EXISTS event (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(32) NOT NULL,
		data TEXT NOT NULL,
		CONSTRAINT chk_name CHECK (name IN ('Received', 'Sent', 'Deposited', 'GatewayAddressUpdated', 'MintingLimitUpdated'))
	);`
)

const (
	queryAccountByAddress = `SELECT data FROM account WHERE address = ? AND kind = ?`
	queryInsertAccount    = `INSERT INTO account (address, kind, data) VALUES (?, ?, ?)`
	queryUpsertAccount    = `INSERT INTO account (address, kind, data) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET data = excluded.data WHERE kind = excluded.kind`
	queryUpdateAccount  = `UPDATE account SET data = ? WHERE address = ? AND kind = ?`
	queryAccountsOfKind = `SELECT data FROM account WHERE kind = ? ORDER BY address`
	queryInsertEvent    = `INSERT INTO event (name, data) VALUES (?, ?)`
	queryEventsAfter    = `SELECT id, name, data FROM event WHERE id > ? ORDER BY id LIMIT ?`
)

var allQueries = []string{
	queryAccountByAddress,
	queryInsertAccount,
	queryUpsertAccount,
	queryUpdateAccount,
	queryAccountsOfKind,
	queryInsertEvent,
	queryEventsAfter,
}
