package db

import (
	"database/sql"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/CamberLoid/Inazuma/internal/utilitylib"
)

// InsertRound 记录一个新回合
func InsertRound(database *sql.DB, roundID uuid.UUID, phase string, contributorCount int) error {
	stmt, err := database.Prepare(`
		INSERT INTO Rounds (uuid, phase, contributor_count, created_at)
		VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		return errors.Wrap(err, "prepare statement")
	}
	defer stmt.Close()

	if _, err = stmt.Exec(roundID.String(), phase, contributorCount, time.Now().Unix()); err != nil {
		return errors.Wrap(err, "insert round")
	}
	return nil
}

// UpdateRoundPhase 更新回合状态
func UpdateRoundPhase(database *sql.DB, roundID uuid.UUID, phase string) error {
	stmt, err := database.Prepare(`
		UPDATE Rounds SET phase = ? WHERE uuid = ?;
	`)
	if err != nil {
		return errors.Wrap(err, "prepare statement")
	}
	defer stmt.Close()

	if _, err = stmt.Exec(phase, roundID.String()); err != nil {
		return errors.Wrap(err, "update round phase")
	}
	return nil
}

// InsertOutcome 写入一条验证结论审计记录
func InsertOutcome(database *sql.DB, o *utilitylib.VerificationOutcome) error {
	stmt, err := database.Prepare(`
		INSERT INTO Outcomes (
			uuid, is_valid, decrypted_total, committed_total,
			discrepancy, reason, expected_commitment, actual_commitment,
			contributor_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return errors.Wrap(err, "prepare statement")
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		o.RoundID.String(),
		o.IsValid,
		o.DecryptedTotal,
		o.CommittedTotal,
		o.Discrepancy,
		o.Reason,
		o.ExpectedCommitment.Text(16),
		o.ActualCommitment.Text(16),
		o.ContributorCount,
		time.Now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "insert outcome")
	}
	return nil
}

// GetOutcome 按回合查询验证结论
func GetOutcome(database *sql.DB, roundID uuid.UUID) (*utilitylib.VerificationOutcome, error) {
	stmt, err := database.Prepare(`
		SELECT uuid, is_valid, decrypted_total, committed_total,
			discrepancy, reason, expected_commitment, actual_commitment,
			contributor_count
		FROM Outcomes
		WHERE uuid = ?;
	`)
	if err != nil {
		return nil, errors.Wrap(err, "prepare statement")
	}
	defer stmt.Close()

	var (
		o           utilitylib.VerificationOutcome
		id          string
		expectedHex string
		actualHex   string
	)
	err = stmt.QueryRow(roundID.String()).Scan(
		&id,
		&o.IsValid,
		&o.DecryptedTotal,
		&o.CommittedTotal,
		&o.Discrepancy,
		&o.Reason,
		&expectedHex,
		&actualHex,
		&o.ContributorCount,
	)
	if err != nil {
		return nil, errors.Wrap(err, "scan row")
	}

	if o.RoundID, err = uuid.Parse(id); err != nil {
		return nil, errors.Wrap(err, "parse round uuid")
	}

	var ok bool
	if o.ExpectedCommitment, ok = new(big.Int).SetString(expectedHex, 16); !ok {
		return nil, errors.New("db: malformed expected commitment")
	}
	if o.ActualCommitment, ok = new(big.Int).SetString(actualHex, 16); !ok {
		return nil, errors.New("db: malformed actual commitment")
	}

	return &o, nil
}
