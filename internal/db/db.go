// 包 db 包含审计数据库的 sql 操作方法。
// 核心协议本身不需要持久状态，
// 这里只为 VerificationOutcome 和回合流水保留一份本地审计记录。
package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// --- 数据库具体操作 ---
// --- 初始化：建表 ---

// table Rounds
func CreateRoundTable() string {
	return `
		CREATE TABLE IF NOT EXISTS Rounds (
			uuid TEXT PRIMARY KEY NOT NULL,
			phase TEXT,
			contributor_count INTEGER,
			created_at INTEGER
		);
	`
}

// table Outcomes:
// uuid TEXT PRIMARY KEY <- 回合标识
// expected_commitment, actual_commitment TEXT <- big.Int 十六进制编码
func CreateOutcomeTable() string {
	return `
		CREATE TABLE IF NOT EXISTS Outcomes (
			uuid TEXT PRIMARY KEY NOT NULL,
			is_valid INTEGER,
			decrypted_total REAL,
			committed_total REAL,
			discrepancy REAL,
			reason TEXT,
			expected_commitment TEXT,
			actual_commitment TEXT,
			contributor_count INTEGER,
			created_at INTEGER,
			FOREIGN KEY(uuid) REFERENCES Rounds(uuid)
		);
	`
}

// InitDatabase 打开数据库并建表
func InitDatabase(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}

	for _, stmt := range []string{CreateRoundTable(), CreateOutcomeTable()} {
		if _, err = database.Exec(stmt); err != nil {
			return nil, errors.Wrap(err, "create table")
		}
	}

	return database, nil
}
