package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luofilm/luofilm/internal/download/domain"
)

func TestCheckEntitlement(t *testing.T) {
	ctx := context.Background()

	t.Run("no subscription is denied", func(t *testing.T) {
		f := newFixture(t)
		ent, err := f.entitle.CheckEntitlement(ctx, "u1")
		require.NoError(t, err)
		require.False(t, ent.Allowed)
		require.False(t, ent.IsAdmin)
	})

	t.Run("active subscription is allowed", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")

		ent, err := f.entitle.CheckEntitlement(ctx, "u2")
		require.NoError(t, err)
		require.Equal(t, Entitlement{Allowed: true}, ent)
	})

	t.Run("lapsed subscription is denied and deactivated", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u3", "1hour")
		f.clock.Advance(time.Hour)

		ent, err := f.entitle.CheckEntitlement(ctx, "u3")
		require.NoError(t, err)
		require.False(t, ent.Allowed)

		sub, err := f.store.Subscriptions().GetSubscription(ctx, "u3")
		require.NoError(t, err)
		require.False(t, sub.Active)
	})

	t.Run("inactive subscription is denied", func(t *testing.T) {
		f := newFixture(t)
		now := f.clock.Now()
		require.NoError(t, f.store.Subscriptions().UpsertSubscription(ctx, domain.Subscription{
			UserID: "u4", PlanID: "1day", StartDate: now, EndDate: now.Add(24 * time.Hour), Active: false, UpdatedAt: now,
		}))

		ent, err := f.entitle.CheckEntitlement(ctx, "u4")
		require.NoError(t, err)
		require.False(t, ent.Allowed)
	})

	t.Run("admin is allowed without subscription", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.subs.SetAdmin(ctx, "boss", true)
		require.NoError(t, err)

		ent, err := f.entitle.CheckEntitlement(ctx, "boss")
		require.NoError(t, err)
		require.Equal(t, Entitlement{Allowed: true, IsAdmin: true}, ent)
	})

	t.Run("non-admin profile falls through to subscription", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.subs.SetAdmin(ctx, "u5", false)
		require.NoError(t, err)

		ent, err := f.entitle.CheckEntitlement(ctx, "u5")
		require.NoError(t, err)
		require.False(t, ent.Allowed)
	})

	t.Run("empty user id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.entitle.CheckEntitlement(ctx, "")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("storage failure is not a decision", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Close())

		ent, err := f.entitle.CheckEntitlement(ctx, "u1")
		require.ErrorIs(t, err, ErrEntitlementCheckFailed)
		require.Equal(t, Entitlement{}, ent)
	})
}
