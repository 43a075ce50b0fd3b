package ldapx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOptions(t *testing.T) *Options {
	t.Helper()
	opts, err := (&Options{ConnectTimeout: time.Second, Timeout: time.Second}).withDefaults()
	require.NoError(t, err)
	return opts
}

func TestNewPoolMultiEndpointPerformsNoIO(t *testing.T) {
	// The endpoints do not exist; lazy construction must not notice.
	endpoints, err := resolveHosts([]string{"dc1.invalid", "dc2.invalid"})
	require.NoError(t, err)

	p, err := newPool(testOptions(t), endpoints, zap.NewNop())
	require.NoError(t, err)
	defer p.close()

	s := p.stats()
	assert.Zero(t, s.Created)
	assert.Zero(t, s.Idle)
	assert.Zero(t, s.Active)
}

func TestPoolGetAfterClose(t *testing.T) {
	endpoints, err := resolveHosts([]string{"dc1.invalid", "dc2.invalid"})
	require.NoError(t, err)

	p, err := newPool(testOptions(t), endpoints, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.close())
	require.NoError(t, p.close(), "close is idempotent")

	_, err = p.get(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolGetWithoutEndpoints(t *testing.T) {
	p := &pool{
		opts:  testOptions(t),
		log:   zap.NewNop(),
		idle:  make(chan *PooledConn, 1),
		start: time.Now(),
	}

	_, err := p.get(context.Background())
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestPoolGetHonorsContext(t *testing.T) {
	endpoints, err := resolveHosts([]string{"dc1.invalid", "dc2.invalid"})
	require.NoError(t, err)

	p, err := newPool(testOptions(t), endpoints, zap.NewNop())
	require.NoError(t, err)
	defer p.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialNextFailsOverAllEndpoints(t *testing.T) {
	// Unroutable ports; each dial fails fast with connection refused.
	endpoints, err := resolveHosts([]string{"127.0.0.1:1", "127.0.0.1:2"})
	require.NoError(t, err)

	p, err := newPool(testOptions(t), endpoints, zap.NewNop())
	require.NoError(t, err)
	defer p.close()

	_, err = p.get(context.Background())
	require.Error(t, err)

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.EqualValues(t, 2, p.stats().Errors, "every endpoint was attempted")
}

func TestSingleEndpointBindsEagerly(t *testing.T) {
	opts := testOptions(t)
	endpoints, err := resolveHosts("127.0.0.1:1")
	require.NoError(t, err)

	_, err = newPool(opts, endpoints, zap.NewNop())
	require.Error(t, err, "an unreachable single endpoint fails construction")

	var bindErr *BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "127.0.0.1:1", bindErr.Server)
}
