package errors

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Source names the backend an error originated from.
type Source string

const (
	SourceApp      Source = "app"
	SourcePostgres Source = "postgres"
	SourceRedis    Source = "redis"
	SourceContext  Source = "context"
)

// ErrorDump is a flattened view of an error chain for structured logs.
type ErrorDump struct {
	Message string   `json:"message"`
	Code    Code     `json:"code,omitempty"`
	Source  Source   `json:"source"`
	Chain   []string `json:"chain,omitempty"`

	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error(), Source: SourceApp}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	var redisErr redis.Error
	switch {
	case stdErrors.As(err, &pgxErr):
		d.Source = SourcePostgres
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
	case stdErrors.As(err, &pqErr):
		d.Source = SourcePostgres
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
	case stdErrors.As(err, &redisErr):
		d.Source = SourceRedis
	case stdErrors.Is(err, context.Canceled), stdErrors.Is(err, context.DeadlineExceeded):
		d.Source = SourceContext
	}
	return d
}

// Fields returns the non-empty parts of the dump keyed for log output.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":        d.Message,
		"error_source": string(d.Source),
	}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	for key, value := range map[string]string{
		"sql_state":      d.SQLState,
		"sql_constraint": d.Constraint,
		"sql_table":      d.Table,
		"sql_column":     d.Column,
		"sql_detail":     d.Detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
