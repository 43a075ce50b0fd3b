package ldapx

import (
	"context"
	"time"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
)

// Scope selects how much of the subtree under the base DN a search
// covers. The zero value is the whole subtree.
type Scope int

const (
	ScopeSubtree Scope = iota
	ScopeBase
	ScopeOne
)

func (s Scope) protocolScope() int {
	switch s {
	case ScopeBase:
		return ldap.ScopeBaseObject
	case ScopeOne:
		return ldap.ScopeSingleLevel
	default:
		return ldap.ScopeWholeSubtree
	}
}

// Default search parameters.
const (
	// FilterAll matches every entry.
	FilterAll = "(objectClass=*)"

	// DefaultQueueSize bounds the streaming search queue.
	DefaultQueueSize = 100
)

// SearchOptions refines a search. The zero value searches the whole
// subtree for every entry, returning all user attributes.
type SearchOptions struct {
	Scope      Scope
	Filter     string
	Attributes []string
	SizeLimit  int
	TimeLimit  time.Duration

	// QueueSize bounds the internal entry queue of SearchEach. While
	// the queue is full the server-side fetch stalls, so a slow
	// callback throttles the stream instead of growing memory.
	QueueSize int
}

func (o *SearchOptions) filter() string {
	if o == nil || o.Filter == "" {
		return FilterAll
	}
	return o.Filter
}

func (o *SearchOptions) queueSize() int {
	if o == nil || o.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return o.QueueSize
}

// newSearchRequest translates the criteria into a protocol request.
func newSearchRequest(base string, opts *SearchOptions) *ldap.SearchRequest {
	if opts == nil {
		opts = &SearchOptions{}
	}
	return ldap.NewSearchRequest(
		base,
		opts.Scope.protocolScope(),
		ldap.NeverDerefAliases,
		opts.SizeLimit,
		int(opts.TimeLimit.Seconds()),
		false,
		opts.filter(),
		opts.Attributes,
		nil,
	)
}

// Search runs a synchronous search and materializes every matching
// entry. Entries that decode to an empty map are dropped as a defense
// against degenerate server responses.
func (c *Conn) Search(ctx context.Context, base string, opts *SearchOptions) ([]*Entry, error) {
	pc, err := c.pool.get(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()

	req := newSearchRequest(base, opts)

	var res *ldap.SearchResult
	err = logOperation(c.log, "search", []zap.Field{
		zap.String("base", base),
		zap.String("filter", req.Filter),
	}, func() error {
		var serr error
		res, serr = pc.conn.Search(req)
		return serr
	})
	if err != nil {
		return nil, newSearchError(base, req.Filter, err)
	}

	entries := make([]*Entry, 0, len(res.Entries))
	for _, le := range res.Entries {
		if e := decodeEntry(le, true); e != nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// searchStream is the slice of the engine's asynchronous search
// response the drain loop needs. go-ldap's Response satisfies it.
type searchStream interface {
	Next() bool
	Entry() *ldap.Entry
	Err() error
}

// SearchEach streams matching entries through a bounded queue and
// invokes fn for each one, synchronously and in server-returned order.
//
// Continuable faults (referral messages, entries that decode empty) are
// skipped. A fatal stream fault, or any error from fn, aborts the
// search: the physical connection is returned to the pool defunct and
// the original fault is propagated after the stream is torn down. There
// is no mid-stream cancel beyond the supplied context.
func (c *Conn) SearchEach(ctx context.Context, base string, opts *SearchOptions, fn func(*Entry) error) error {
	pc, err := c.pool.get(ctx)
	if err != nil {
		return err
	}

	// The cancel tears the background fetch down on every exit path.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req := newSearchRequest(base, opts)
	stream := pc.conn.SearchAsync(ctx, req, opts.queueSize())

	if err := drainStream(stream, fn); err != nil {
		pc.ReleaseDefunct()
		return err
	}
	pc.Release()
	return nil
}

// drainStream pulls decoded entries until the stream is exhausted.
// Split out against the searchStream interface so the skip/abort policy
// is testable without a directory server.
func drainStream(stream searchStream, fn func(*Entry) error) error {
	for stream.Next() {
		le := stream.Entry()
		if le == nil {
			// Referral or other non-entry message: continuable.
			continue
		}
		e := decodeEntry(le, true)
		if e == nil {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return &StreamError{Err: err}
	}
	return nil
}
