package ldapx

import (
	"context"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
)

// Conn is a pooled client handle. It is safe for concurrent use; each
// operation checks one physical connection out for its duration. The
// caller owns the handle and must Close it.
type Conn struct {
	pool *pool
	opts *Options
	log  *zap.Logger
}

// Result reports the outcome of a write operation. PreRead and
// PostRead are populated only when the corresponding directive was
// present on the request and the server returned the control.
type Result struct {
	Code uint16
	Name string

	PreRead  *Entry
	PostRead *Entry
}

func successResult() *Result {
	return &Result{
		Code: ldap.LDAPResultSuccess,
		Name: ldap.LDAPResultCodeMap[ldap.LDAPResultSuccess],
	}
}

// Connect validates the options, resolves the host specification and
// builds the connection pool. With a single endpoint the bind happens
// eagerly here and a rejected credential surfaces as *BindError; with
// several endpoints construction performs no network I/O and failures
// surface on first use instead.
func Connect(opts *Options) (*Conn, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	endpoints, err := resolveHosts(opts.Host)
	if err != nil {
		return nil, err
	}

	log := opts.Logger.Named("ldapx")
	p, err := newPool(opts, endpoints, log)
	if err != nil {
		return nil, err
	}
	return &Conn{pool: p, opts: opts, log: log}, nil
}

// Close releases the pool and every idle connection.
func (c *Conn) Close() error {
	return c.pool.close()
}

// Stats returns a snapshot of pool activity.
func (c *Conn) Stats() PoolStats {
	return c.pool.stats()
}

// Get reads one entry by DN, optionally restricted to the named
// attributes. It returns nil both when the entry does not exist and
// when it cannot be read; the non-distinction is part of the contract.
// The underlying fault, if any, is logged at debug level.
func (c *Conn) Get(ctx context.Context, dn string, attrs ...string) *Entry {
	entries, err := c.Search(ctx, dn, &SearchOptions{
		Scope:      ScopeBase,
		Attributes: attrs,
		SizeLimit:  1,
	})
	if err != nil {
		c.log.Debug("get treated as absent", zap.String("dn", dn), zap.Error(err))
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	return entries[0]
}

// Add creates a new entry from a generic attribute map. Sequence and
// set values expand to multi-valued attributes; scalars are
// stringified.
func (c *Conn) Add(ctx context.Context, dn string, attrs map[string]any) (*Result, error) {
	pc, err := c.pool.get(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	err = logOperation(c.log, "add", []zap.Field{zap.String("dn", dn)}, func() error {
		return pc.conn.Add(newAddRequest(dn, attrs))
	})
	if err != nil {
		return nil, newWriteError("add", dn, err)
	}
	return successResult(), nil
}

// Modify applies the Mods sections as one atomic modify request, in
// add, delete, replace, increment order. Pre-/post-read entries are
// merged into the result when requested and returned by the server.
func (c *Conn) Modify(ctx context.Context, dn string, mods Mods) (*Result, error) {
	if mods.empty() {
		return nil, newConfigError("modify of %q has no modifications", dn)
	}

	pc, err := c.pool.get(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	var mr *ldap.ModifyResult
	err = logOperation(c.log, "modify", []zap.Field{zap.String("dn", dn)}, func() error {
		var merr error
		mr, merr = pc.conn.ModifyWithResult(newModifyRequest(dn, mods))
		return merr
	})
	if err != nil {
		return nil, newWriteError("modify", dn, err)
	}

	res := successResult()
	if mr != nil {
		if len(mods.PreRead) > 0 {
			res.PreRead = decodeReadEntry(mr.Controls, ControlTypePreRead)
		}
		if len(mods.PostRead) > 0 {
			res.PostRead = decodeReadEntry(mr.Controls, ControlTypePostRead)
		}
	}
	return res, nil
}

// Delete removes the entry at dn. When pre-read attributes are given,
// the entry state is fetched before the delete and merged into the
// result. Deleting a non-existent DN fails with *WriteError, never
// silently.
func (c *Conn) Delete(ctx context.Context, dn string, preRead ...string) (*Result, error) {
	var pre *Entry
	if len(preRead) > 0 {
		pre = c.Get(ctx, dn, preRead...)
	}

	pc, err := c.pool.get(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	err = logOperation(c.log, "delete", []zap.Field{zap.String("dn", dn)}, func() error {
		return pc.conn.Del(newDeleteRequest(dn))
	})
	if err != nil {
		return nil, newWriteError("delete", dn, err)
	}

	res := successResult()
	res.PreRead = pre
	return res, nil
}

// Bind verifies a credential pair: true on a successful bind, false on
// any fault. Error detail is deliberately swallowed (and logged at
// debug level); the connection is rebound to the pool identity before
// it is returned, so the pool's bind state never changes.
func (c *Conn) Bind(ctx context.Context, dn, password string) bool {
	pc, err := c.pool.get(ctx)
	if err != nil {
		c.log.Debug("bind check failed to acquire connection", zap.Error(err))
		return false
	}

	err = pc.conn.Bind(dn, password)
	if err != nil {
		c.log.Debug("bind check rejected", zap.String("dn", dn), zap.Error(err))
	}

	// Restore the shared pool identity; a connection that cannot be
	// rebound must not be reused.
	if rerr := c.pool.bind(pc.conn, pc.endpoint); rerr != nil {
		pc.ReleaseDefunct()
	} else {
		pc.Release()
	}
	return err == nil
}

// Compare checks whether the entry at dn has the given attribute value.
func (c *Conn) Compare(ctx context.Context, dn, attr, value string) (bool, error) {
	pc, err := c.pool.get(ctx)
	if err != nil {
		return false, err
	}
	defer pc.Release()

	ok, err := pc.conn.Compare(dn, attr, value)
	if err != nil {
		return false, newWriteError("compare", dn, err)
	}
	return ok, nil
}

// WhoAmI returns the authorization identity the server associates with
// the pooled bind, via the RFC 4532 extended operation.
func (c *Conn) WhoAmI(ctx context.Context) (string, error) {
	pc, err := c.pool.get(ctx)
	if err != nil {
		return "", err
	}
	defer pc.Release()

	res, err := pc.conn.WhoAmI(nil)
	if err != nil {
		return "", err
	}
	return res.AuthzID, nil
}
