package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"tow-dispatch-api/logging"
	"tow-dispatch-api/metrics"
	"tow-dispatch-api/models"
	"tow-dispatch-api/notify"
	"tow-dispatch-api/store"
	"tow-dispatch-api/testutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store    *store.Store
	auth     *AuthService
	orders   *OrderService
	notified *captureNotifier
	metrics  *metrics.Metrics
	dispatch *notify.Dispatcher
}

type captureNotifier struct {
	mu     sync.Mutex
	orders []models.Order
}

func (c *captureNotifier) Notify(_ context.Context, o models.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, o)
	return nil
}

func (c *captureNotifier) all() []models.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Order(nil), c.orders...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(testutil.OpenDB(t))
	m := metrics.New("test")
	n := &captureNotifier{}
	d := notify.NewDispatcher(n, time.Second, logging.Discard(), m)
	return &fixture{
		store:    st,
		auth:     NewAuthService(st, "test-secret", 0, WithBcryptCost(bcrypt.MinCost)),
		orders:   NewOrderService(st, nil, d, m, logging.Discard()),
		notified: n,
		metrics:  m,
		dispatch: d,
	}
}

// identity registers a customer and returns what its token verifies to.
func (f *fixture) identity(t *testing.T, email string) Identity {
	t.Helper()
	sess, err := f.auth.Register(context.Background(), email, "secret1")
	require.NoError(t, err)
	id, err := f.auth.Verify(sess.Token)
	require.NoError(t, err)
	return id
}

func (f *fixture) admin(t *testing.T) Identity {
	t.Helper()
	ctx := context.Background()
	_, err := f.auth.SeedAdmin(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	sess, err := f.auth.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	id, err := f.auth.Verify(sess.Token)
	require.NoError(t, err)
	return id
}

func validPayload() OrderPayload {
	return OrderPayload{
		PickupAddress:  Str("Nevsky 1"),
		DropoffAddress: Str("Pulkovo"),
		VehicleType:    Str("Car"),
		DistanceKm:     Str("4.20"),
	}
}
