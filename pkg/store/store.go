// Package store implements C8: the Postgres-backed DocumentStore, a
// delete-then-reinsert party commit inside a single transaction (BeginTxx
// / deferred Rollback tolerating sql.ErrTxDone / Commit, then Commit).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// PostgresDocumentStore implements pipeline.DocumentStore.
type PostgresDocumentStore struct {
	db     *sqlx.DB
	Logger *log.Logger
}

// NewPostgresDocumentStore wraps an already-migrated connection.
func NewPostgresDocumentStore(db *sqlx.DB, logger *log.Logger) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db, Logger: logger}
}

// formatNumeric renders integer-looking floats without a decimal point
// and everything else to 2dp, for the string-typed numeric columns.
func formatNumeric(v *float64) *string {
	if v == nil {
		return nil
	}
	var s string
	if *v == float64(int64(*v)) {
		s = strconv.FormatInt(int64(*v), 10)
	} else {
		s = strconv.FormatFloat(*v, 'f', 2, 64)
	}
	return &s
}

// Upsert implements pipeline.DocumentStore: it upserts the document row,
// upserts the property row, and delete-then-reinserts every party row,
// all inside one transaction. Party-replacement always wins; there is no
// flag protecting a manually corrected party row from a later rerun.
func (s *PostgresDocumentStore) Upsert(ctx context.Context, documentID, batchID string, record pipeline.ExtractedRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.Logger.Warnf("[%s] rollback after commit attempt: %v", documentID, err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document (document_id, batch_id, transaction_date, registration_office, file_hash, updated_at)
		VALUES ($1, $2, $3, $4, '', now())
		ON CONFLICT (document_id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id,
			transaction_date = EXCLUDED.transaction_date,
			registration_office = EXCLUDED.registration_office,
			updated_at = now()
	`, documentID, batchID, record.Document.TransactionDate, record.Document.RegistrationOffice); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO property (
			document_id, schedule_b_area, schedule_c_name, schedule_c_address, schedule_c_area,
			pincode, state, sale_consideration, stamp_duty_fee, registration_fee, guidance_value, cash_payment_mode
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (document_id) DO UPDATE SET
			schedule_b_area = EXCLUDED.schedule_b_area,
			schedule_c_name = EXCLUDED.schedule_c_name,
			schedule_c_address = EXCLUDED.schedule_c_address,
			schedule_c_area = EXCLUDED.schedule_c_area,
			pincode = EXCLUDED.pincode,
			state = EXCLUDED.state,
			sale_consideration = EXCLUDED.sale_consideration,
			stamp_duty_fee = EXCLUDED.stamp_duty_fee,
			registration_fee = EXCLUDED.registration_fee,
			guidance_value = EXCLUDED.guidance_value,
			cash_payment_mode = EXCLUDED.cash_payment_mode
	`,
		documentID, record.Property.ScheduleBArea, record.Property.ScheduleCName, record.Property.ScheduleCAddress,
		record.Property.ScheduleCArea, record.Property.Pincode, record.Property.State,
		formatNumeric(record.Property.SaleConsideration), formatNumeric(record.Property.StampDutyFee),
		formatNumeric(record.Property.RegistrationFee), formatNumeric(record.Property.GuidanceValue),
		record.Property.CashPaymentMode,
	); err != nil {
		return fmt.Errorf("upsert property: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM party WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("clear existing parties: %w", err)
	}

	for _, parties := range [][]pipeline.Party{record.Sellers, record.Buyers, record.ConfirmingParties} {
		for _, p := range parties {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO party (
					document_id, role, name, gender, father_name, dob, national_id, tax_id,
					address, pincode, state, phone1, phone2, email, share
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			`,
				documentID, p.Role, p.Name, p.Gender, p.FatherOrSpouseName, p.DOB, p.NationalID, p.TaxID,
				p.Address, p.Pincode, p.State, p.Phone1, p.Phone2, p.Email, p.Share,
			); err != nil {
				return fmt.Errorf("insert party %s: %w", p.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RecordFileHash writes the content hash computed at upload time, for
// the document row's fileHash column.
func (s *PostgresDocumentStore) RecordFileHash(ctx context.Context, documentID, fileHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document (document_id, batch_id, file_hash, updated_at)
		VALUES ($1, '', $2, now())
		ON CONFLICT (document_id) DO UPDATE SET file_hash = EXCLUDED.file_hash, updated_at = now()
	`, documentID, fileHash)
	if err != nil {
		return fmt.Errorf("record file hash: %w", err)
	}
	return nil
}

// FileHashExists implements the lookup pkg/duplicate needs: does any
// existing document already carry this content hash.
func (s *PostgresDocumentStore) FileHashExists(ctx context.Context, fileHash string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT count(*) FROM document WHERE file_hash = $1`, fileHash); err != nil {
		return false, fmt.Errorf("check file hash: %w", err)
	}
	return count > 0, nil
}

var _ pipeline.DocumentStore = (*PostgresDocumentStore)(nil)
