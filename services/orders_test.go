package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tow-dispatch-api/geo"
	"tow-dispatch-api/models"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderPricesFromDistance(t *testing.T) {
	f := newFixture(t)
	ann := f.identity(t, "ann@example.com")

	var p OrderPayload
	require.NoError(t, json.Unmarshal([]byte(`{
		"pickupAddress": " Nevsky 1 ",
		"dropoffAddress": "Pulkovo",
		"vehicleType": "truck",
		"vehicleBrand": "",
		"comment": "gate code 42",
		"isRunning": "on",
		"hasDocs": 0,
		"canWinch": true,
		"distanceKm": 4.2,
		"price": 1
	}`), &p))

	o, err := f.orders.Create(context.Background(), ann, p)
	require.NoError(t, err)
	assert.Equal(t, 2500, o.Price)
	assert.Equal(t, 4.2, o.DistanceKm)
	assert.Equal(t, models.StatusInProgress, o.Status)
	assert.Equal(t, models.VehicleTruck, o.VehicleType)
	assert.Equal(t, "Nevsky 1", o.PickupAddress)
	assert.Nil(t, o.VehicleBrand)
	require.NotNil(t, o.Comment)
	assert.Equal(t, "gate code 42", *o.Comment)
	assert.True(t, o.IsRunning)
	assert.False(t, o.HasDocs)
	assert.True(t, o.CanWinch)
	assert.Equal(t, ann.UserID, o.UserID)
	assert.Equal(t, "ann@example.com", o.UserEmail)

	f.dispatch.Wait()
	sent := f.notified.all()
	require.Len(t, sent, 1)
	assert.Equal(t, o.ID, sent[0].ID)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.OrdersCreated.WithLabelValues("Truck")))
}

func TestCreateOrderDistanceCoercion(t *testing.T) {
	f := newFixture(t)
	ann := f.identity(t, "ann@example.com")
	ctx := context.Background()

	for _, tc := range []struct {
		raw      string
		distance float64
		price    int
	}{
		{"0", 0, 2000},
		{"1", 1, 2100},
		{"12.01", 12.01, 3300},
		{"-3", -3, 2000},
		{"abc", 0, 2000},
	} {
		p := validPayload()
		p.DistanceKm = Str(tc.raw)
		o, err := f.orders.Create(ctx, ann, p)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.distance, o.DistanceKm, tc.raw)
		assert.Equal(t, tc.price, o.Price, tc.raw)
	}
}

func TestCreateOrderRejectsOversizedDistance(t *testing.T) {
	f := newFixture(t)
	ann := f.identity(t, "ann@example.com")
	ctx := context.Background()

	for _, raw := range []string{"1e17", "1e300", "20000.01"} {
		p := validPayload()
		p.DistanceKm = Str(raw)
		_, err := f.orders.Create(ctx, ann, p)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
	orders, err := f.orders.ListMine(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, orders)

	p := validPayload()
	p.DistanceKm = Str("20000")
	o, err := f.orders.Create(ctx, ann, p)
	require.NoError(t, err)
	assert.Equal(t, 2002000, o.Price)
}

func TestCreateOrderReportsFirstMissingField(t *testing.T) {
	f := newFixture(t)
	ann := f.identity(t, "ann@example.com")
	ctx := context.Background()

	_, err := f.orders.Create(ctx, ann, OrderPayload{})
	require.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Missing field: pickupAddress")

	p := validPayload()
	p.DropoffAddress = Str("   ")
	p.DistanceKm = Field{}
	_, err = f.orders.Create(ctx, ann, p)
	assert.EqualError(t, err, "Missing field: dropoffAddress")

	p = validPayload()
	p.DistanceKm = Field{}
	_, err = f.orders.Create(ctx, ann, p)
	assert.EqualError(t, err, "Missing field: distanceKm")

	p = validPayload()
	p.VehicleType = Str("Tractor")
	_, err = f.orders.Create(ctx, ann, p)
	assert.ErrorIs(t, err, ErrValidation)

	orders, err := f.orders.ListMine(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.orders.Create(context.Background(), Identity{}, validPayload())
	assert.ErrorIs(t, err, ErrAuth)
}

func TestListMineIsolatesOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.identity(t, "ann@example.com")
	bob := f.identity(t, "bob@example.com")

	first, err := f.orders.Create(ctx, ann, validPayload())
	require.NoError(t, err)
	second, err := f.orders.Create(ctx, ann, validPayload())
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, bob, validPayload())
	require.NoError(t, err)

	mine, err := f.orders.ListMine(ctx, ann)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	for _, o := range mine {
		assert.Equal(t, ann.UserID, o.UserID)
	}
}

func TestListAllRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.identity(t, "ann@example.com")
	_, err := f.orders.Create(ctx, ann, validPayload())
	require.NoError(t, err)

	_, err = f.orders.ListAll(ctx, ann)
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := f.orders.ListAll(ctx, f.admin(t))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ann@example.com", all[0].UserEmail)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.identity(t, "ann@example.com")
	admin := f.admin(t)
	o, err := f.orders.Create(ctx, ann, validPayload())
	require.NoError(t, err)

	_, err = f.orders.SetStatus(ctx, ann, o.ID, "done")
	require.ErrorIs(t, err, ErrForbidden)
	mine, err := f.orders.ListMine(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, mine[0].Status)

	_, err = f.orders.SetStatus(ctx, admin, o.ID, "shipped")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.orders.SetStatus(ctx, admin, 9999, "done")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.orders.SetStatus(ctx, admin, o.ID, "готово")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)

	again, err := f.orders.SetStatus(ctx, admin, o.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, again.Status)
	assert.Equal(t, updated.Price, again.Price)
	assert.Equal(t, updated.PickupAddress, again.PickupAddress)

	back, err := f.orders.SetStatus(ctx, admin, o.ID, "in_progress")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, back.Status)

	history, err := f.orders.History(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	_, err = f.orders.History(ctx, ann, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, 2.0, promtest.ToFloat64(f.metrics.OrderStatusChanges.WithLabelValues("done")))
}

type stubRouter struct{ km float64 }

func (s stubRouter) RouteKm(context.Context, geo.Point, geo.Point) (float64, error) {
	if s.km < 0 {
		return 0, errors.New("no route")
	}
	return s.km, nil
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	f.orders.estimator = geo.NewEstimator(nil, stubRouter{km: 12.346})
	a := geo.Point{Lat: 59.9390, Lng: 30.3158}
	b := geo.Point{Lat: 59.8003, Lng: 30.2625}

	est, err := f.orders.Quote(context.Background(), geo.Location{Point: &a}, geo.Location{Point: &b, Address: "Pulkovo"})
	require.NoError(t, err)
	assert.Equal(t, 12.35, est.DistanceKm)
	assert.Equal(t, 3300, est.Price)
	assert.Equal(t, "Pulkovo", est.DropoffAddress)
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.QuotesTotal.WithLabelValues(geo.SourceRoute)))

	_, err = f.orders.Quote(context.Background(), geo.Location{Point: &a}, geo.Location{Address: "Nowhere"})
	require.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Could not locate dropoff address")
}

func TestFlagAndFieldDecoding(t *testing.T) {
	var v struct {
		A, B, C, D Flag
		N, S, Z    Field
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A":true,"B":"false","C":1,"D":null,"N":12.5,"S":"x","Z":null}`), &v))
	assert.True(t, bool(v.A))
	assert.False(t, bool(v.B))
	assert.True(t, bool(v.C))
	assert.False(t, bool(v.D))
	assert.Equal(t, Field{Value: "12.5", Set: true}, v.N)
	assert.Equal(t, "x", v.S.Text())
	assert.False(t, v.Z.Set)
}
