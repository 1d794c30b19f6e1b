package tokenledger

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// amounts and supplies are 16-char hex so that the full uint64 range fits
	assetTable = `CREATE TABLE IF NOT EXISTS asset (
		address CHAR(64) PRIMARY KEY NOT NULL,
		authority CHAR(64) NOT NULL,
		decimals INTEGER NOT NULL,
		supply CHAR(16) NOT NULL,
		CONSTRAINT chk_address CHECK (address != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_decimals CHECK (decimals >= 0 AND decimals <= 255),
		CONSTRAINT chk_supply CHECK (length(supply) = 16)
	);`

	minterTable = `CREATE TABLE IF NOT EXISTS minter (
		asset CHAR(64) NOT NULL REFERENCES asset(address),
		minter CHAR(64) NOT NULL,
		PRIMARY KEY (asset, minter)
	);`

	tokenAccountTable = `CREATE TABLE IF NOT EXISTS token_account (
		address CHAR(64) PRIMARY KEY NOT NULL,
		asset CHAR(64) NOT NULL REFERENCES asset(address),
		owner CHAR(64) NOT NULL,
		amount CHAR(16) NOT NULL,
		delegate CHAR(64),
		delegated CHAR(16) NOT NULL,
		CONSTRAINT chk_address CHECK (address != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_owner CHECK (owner != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_amount CHECK (length(amount) = 16),
		CONSTRAINT chk_delegated CHECK (length(delegated) = 16)
	);
	CREATE INDEX IF NOT EXISTS idx_token_account_owner ON token_account(owner);`
)

const (
	queryAsset          = `SELECT address, authority, decimals, supply FROM asset WHERE address = ?`
	queryInsertAsset    = `INSERT INTO asset (address, authority, decimals, supply) VALUES (?, ?, ?, ?)`
	queryUpdateSupply   = `UPDATE asset SET supply = ? WHERE address = ?`
	queryIsMinter       = `SELECT 1 FROM minter WHERE asset = ? AND minter = ?`
	queryInsertMinter   = `INSERT OR IGNORE INTO minter (asset, minter) VALUES (?, ?)`
	queryDeleteMinter   = `DELETE FROM minter WHERE asset = ? AND minter = ?`
	queryAccount        = `SELECT address, asset, owner, amount, delegate, delegated FROM token_account WHERE address = ?`
	queryAccountsOwner  = `SELECT address, asset, owner, amount, delegate, delegated FROM token_account WHERE owner = ? ORDER BY address`
	queryInsertAccount  = `INSERT INTO token_account (address, asset, owner, amount, delegate, delegated) VALUES (?, ?, ?, ?, NULL, ?)`
	queryUpdateAmount   = `UPDATE token_account SET amount = ? WHERE address = ?`
	queryUpdateDelegate = `UPDATE token_account SET delegate = ?, delegated = ? WHERE address = ?`
)

var allQueries = []string{
	queryAsset,
	queryInsertAsset,
	queryUpdateSupply,
	queryIsMinter,
	queryInsertMinter,
	queryDeleteMinter,
	queryAccount,
	queryAccountsOwner,
	queryInsertAccount,
	queryUpdateAmount,
	queryUpdateDelegate,
}
