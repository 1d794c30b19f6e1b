package relay

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// attested messages, data is the BCS encoded transfer
	postedMessageTable = `CREATE TABLE IF NOT EXISTS posted_message (
		hash CHAR(64) PRIMARY KEY NOT NULL,
		emitterChain INTEGER NOT NULL,
		sequence CHAR(16) NOT NULL,
		data BLOB NOT NULL,
		CONSTRAINT chk_hash CHECK (hash != '` + strZeroBytes32 + `')
	);`

	// presence of a row means the message was redeemed
	claimTable = `CREATE TABLE IF NOT EXISTS claim (
		hash CHAR(64) PRIMARY KEY NOT NULL REFERENCES posted_message(hash)
	);`

	outboundTable = `CREATE TABLE IF NOT EXISTS outbound_transfer (
		sequence INTEGER PRIMARY KEY NOT NULL,
		sender CHAR(64) NOT NULL,
		asset CHAR(64) NOT NULL,
		source CHAR(64) NOT NULL,
		amount CHAR(16) NOT NULL,
		recipientChain INTEGER NOT NULL,
		recipient CHAR(64) NOT NULL,
		arbiterFee CHAR(16) NOT NULL,
		nonce INTEGER NOT NULL,
		payload BLOB,
		CONSTRAINT chk_sequence CHECK (sequence > 0),
		CONSTRAINT chk_recipient CHECK (recipient != '` + strZeroBytes32 + `')
	);`
)

const (
	queryInsertPosted   = `INSERT INTO posted_message (hash, emitterChain, sequence, data) VALUES (?, ?, ?, ?)`
	queryPosted         = `SELECT data FROM posted_message WHERE hash = ?`
	queryClaim          = `SELECT 1 FROM claim WHERE hash = ?`
	queryInsertClaim    = `INSERT INTO claim (hash) VALUES (?)`
	queryNextSequence   = `SELECT COALESCE(MAX(sequence), 0) + 1 FROM outbound_transfer`
	queryInsertOutbound = `INSERT INTO outbound_transfer
		(sequence, sender, asset, source, amount, recipientChain, recipient, arbiterFee, nonce, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryOutbound       = `SELECT sequence, sender, asset, source, amount, recipientChain, recipient, arbiterFee, nonce, payload
		FROM outbound_transfer WHERE sequence > ? ORDER BY sequence LIMIT ?`
)

var allQueries = []string{
	queryInsertPosted,
	queryPosted,
	queryClaim,
	queryInsertClaim,
	queryNextSequence,
	queryInsertOutbound,
	queryOutbound,
}
