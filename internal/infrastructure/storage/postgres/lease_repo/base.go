// Package lease_repo provides the PostgreSQL implementations of the billing
// repositories. Every repository runs its statements through the querier of
// the TxManager so that calls made inside RunInTransaction share one pgx.Tx.
package lease_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"leasebill/internal/infrastructure/storage/postgres"
)

type baseRepo struct {
	txManager *postgres.TxManager
	now       func() time.Time
}

func newBaseRepo(txManager *postgres.TxManager) baseRepo {
	return baseRepo{
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r baseRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r baseRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// exec runs a write statement and returns the affected row count.
func (r baseRepo) exec(ctx context.Context, q squirrel.Sqlizer, entity string) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s statement: %w", entity, err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(fmt.Errorf("exec %s: %w", entity, err), entity)
	}
	return tag.RowsAffected(), nil
}

// writable drops the columns a statement must not set.
func writable(cols []string, skip ...string) []string {
	out := make([]string, 0, len(cols))
next:
	for _, c := range cols {
		for _, s := range skip {
			if c == s {
				continue next
			}
		}
		out = append(out, c)
	}
	return out
}

// valuesOf returns the values of m in cols order.
func valuesOf(m map[string]any, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = m[c]
	}
	return out
}
