package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Pool is the part of a connection pool the router needs.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NamespaceLookup confirms that a namespace belongs to a registered tenant.
type NamespaceLookup interface {
	NamespaceExists(ctx context.Context, namespace string) (bool, error)
}

// Router hands out request-lifetime scopes bound to one namespace.
type Router struct {
	pool   Pool
	lookup NamespaceLookup
	logger *zap.Logger
}

func NewRouter(pool Pool, lookup NamespaceLookup, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{pool: pool, lookup: lookup, logger: logger}
}

// Resolve opens a scope for the given tenant identifier. A nil or empty
// identifier yields a scope that only sees the shared namespace. The caller
// owns the scope and must Release it.
func (r *Router) Resolve(ctx context.Context, tenantIdentifier *string) (*Scope, error) {
	namespace := ""
	if tenantIdentifier != nil {
		namespace = *tenantIdentifier
	}

	if namespace != "" {
		if err := ValidateNamespace(namespace); err != nil {
			return nil, err
		}
		exists, err := r.lookup.NamespaceExists(ctx, namespace)
		if err != nil {
			return nil, fmt.Errorf("failed to look up namespace: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open scoped connection: %w", err)
	}

	// SET LOCAL dies with the transaction, so the pooled connection goes
	// back without a tenant search_path attached.
	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+SearchPath(namespace)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn("rollback after failed search_path", zap.Error(rbErr))
		}
		return nil, fmt.Errorf("failed to set search_path: %w", err)
	}

	return &Scope{tx: tx, namespace: namespace}, nil
}

// WithScope resolves a scope, runs fn in it and always releases it. The
// scope is committed only when fn succeeds.
func (r *Router) WithScope(ctx context.Context, tenantIdentifier *string, fn func(scope *Scope) error) (err error) {
	scope, err := r.Resolve(ctx, tenantIdentifier)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := scope.Release(ctx); relErr != nil {
			r.logger.Warn("failed to release scope", zap.String("namespace", scope.namespace), zap.Error(relErr))
		}
	}()

	if err = fn(scope); err != nil {
		return err
	}
	return scope.Commit(ctx)
}

// Scope is a database session whose search_path is bound to one namespace.
// It can only be obtained from a Router.
type Scope struct {
	tx        pgx.Tx
	namespace string
	done      bool
}

// Namespace is the tenant namespace, or "" for the shared namespace.
func (s *Scope) Namespace() string {
	return s.namespace
}

func (s *Scope) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return s.tx.Exec(ctx, sql, args...)
}

func (s *Scope) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return s.tx.Query(ctx, sql, args...)
}

func (s *Scope) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return s.tx.QueryRow(ctx, sql, args...)
}

// Commit makes the scope's writes durable and releases the connection.
func (s *Scope) Commit(ctx context.Context) error {
	if s.done {
		return errors.New("scope already released")
	}
	s.done = true
	return s.tx.Commit(ctx)
}

// Release rolls back uncommitted work and returns the connection. It is a
// no-op once the scope has been committed or released.
func (s *Scope) Release(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
