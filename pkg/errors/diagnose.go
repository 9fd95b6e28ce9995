package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnostics is the log-only view of an error. It is never sent to clients.
type Diagnostics struct {
	Message  string
	Code     Code
	Chain    []string
	Postgres PostgresDetail
}

// PostgresDetail carries the server-side fields of a driver error, whichever
// driver produced it.
type PostgresDetail struct {
	Code       string
	Constraint string
	Table      string
	Detail     string
}

// Fields flattens the detail into pg_* log fields. Empty when no driver error
// was found in the chain.
func (p PostgresDetail) Fields() map[string]any {
	if p.Code == "" {
		return nil
	}
	return map[string]any{
		"pg_code":       p.Code,
		"pg_constraint": p.Constraint,
		"pg_table":      p.Table,
		"pg_detail":     p.Detail,
	}
}

// Diagnose walks err's unwrap chain and collects what is worth logging.
func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}

	d := Diagnostics{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Postgres = postgresDetail(err)
	return d
}

func postgresDetail(err error) PostgresDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return PostgresDetail{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return PostgresDetail{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
		}
	}
	return PostgresDetail{}
}
