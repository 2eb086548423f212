package archive

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"charterdesk/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RecordExchange appends one relay invocation to the audit log. Satisfies
// relay.Recorder.
func (s Store) RecordExchange(ctx context.Context, x domain.Exchange) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO exchanges(request_id,kind,target,status,ok,body,ts) VALUES (?,?,?,?,?,?,?)`,
		x.RequestID, x.Kind, nullable(x.Target), x.Status, boolInt(x.Ok), nullable(x.Body),
		s.now().UTC().Format(time.RFC3339))
	return err
}

// LatestExchanges returns up to n exchanges, newest first, optionally
// filtered by kind.
func (s Store) LatestExchanges(ctx context.Context, n int, kind string) ([]domain.Exchange, error) {
	query := `SELECT id,request_id,kind,COALESCE(target,''),status,ok,COALESCE(body,''),ts FROM exchanges`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind=?`
		args = append(args, kind)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, n)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Exchange
	for rows.Next() {
		var x domain.Exchange
		var ok int
		if err := rows.Scan(&x.ID, &x.RequestID, &x.Kind, &x.Target, &x.Status, &ok, &x.Body, &x.TS); err != nil {
			return nil, err
		}
		x.Ok = ok != 0
		out = append(out, x)
	}
	return out, rows.Err()
}

// RecordProposal stores one submission attempt with its relay outcome.
func (s Store) RecordProposal(ctx context.Context, rec domain.ProposalRecord) error {
	created := rec.CreatedAt
	if created == "" {
		created = s.now().UTC().Format(time.RFC3339)
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO proposals(proposal_id,session_id,language,currency,client_name,client_email,boat_count,payload_json,request_id,upstream_status,ok,created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ProposalID, nullable(rec.SessionID), rec.Language, rec.Currency,
		nullable(rec.ClientName), nullable(rec.ClientEmail), rec.BoatCount, rec.PayloadJSON,
		rec.RequestID, rec.UpstreamStatus, boolInt(rec.Ok), created)
	return err
}

// GetProposal looks up an archived proposal by id.
func (s Store) GetProposal(ctx context.Context, proposalID string) (domain.ProposalRecord, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT proposal_id,COALESCE(session_id,''),language,currency,COALESCE(client_name,''),COALESCE(client_email,''),boat_count,payload_json,request_id,upstream_status,ok,created_at
		 FROM proposals WHERE proposal_id=?`, proposalID)
	return scanProposal(row)
}

// ListProposals returns up to n archived proposals, newest first.
func (s Store) ListProposals(ctx context.Context, n int) ([]domain.ProposalRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT proposal_id,COALESCE(session_id,''),language,currency,COALESCE(client_name,''),COALESCE(client_email,''),boat_count,payload_json,request_id,upstream_status,ok,created_at
		 FROM proposals ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ProposalRecord
	for rows.Next() {
		var rec domain.ProposalRecord
		var ok int
		if err := rows.Scan(&rec.ProposalID, &rec.SessionID, &rec.Language, &rec.Currency,
			&rec.ClientName, &rec.ClientEmail, &rec.BoatCount, &rec.PayloadJSON,
			&rec.RequestID, &rec.UpstreamStatus, &ok, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Ok = ok != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanProposal(row *sql.Row) (domain.ProposalRecord, error) {
	var rec domain.ProposalRecord
	var ok int
	err := row.Scan(&rec.ProposalID, &rec.SessionID, &rec.Language, &rec.Currency,
		&rec.ClientName, &rec.ClientEmail, &rec.BoatCount, &rec.PayloadJSON,
		&rec.RequestID, &rec.UpstreamStatus, &ok, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	rec.Ok = ok != 0
	return rec, err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
