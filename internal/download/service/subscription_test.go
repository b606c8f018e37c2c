package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionService(t *testing.T) {
	ctx := context.Background()

	t.Run("plans are a copy of the catalogue", func(t *testing.T) {
		f := newFixture(t)
		plans := f.subs.Plans()
		require.NotEmpty(t, plans)
		plans[0].Price = -1
		require.NotEqual(t, int64(-1), f.subs.Plans()[0].Price)
	})

	t.Run("grant starts now for the plan duration", func(t *testing.T) {
		f := newFixture(t)
		sub, err := f.subs.Grant(ctx, "u1", "1week")
		require.NoError(t, err)
		require.Equal(t, f.clock.Now(), sub.StartDate)
		require.Equal(t, f.clock.Now().Add(7*24*time.Hour), sub.EndDate)
		require.True(t, sub.Active)

		status, err := f.subs.Status(ctx, "u1")
		require.NoError(t, err)
		require.True(t, status.Allowed)
		require.NotNil(t, status.Subscription)
		require.Equal(t, "1week", status.Subscription.PlanID)
	})

	t.Run("grant rejects unknown plans", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.subs.Grant(ctx, "u1", "lifetime")
		require.ErrorIs(t, err, ErrUnknownPlan)

		_, err = f.subs.Grant(ctx, "", "1day")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("status without subscription", func(t *testing.T) {
		f := newFixture(t)
		status, err := f.subs.Status(ctx, "nobody")
		require.NoError(t, err)
		require.False(t, status.Allowed)
		require.Nil(t, status.Subscription)
	})

	t.Run("status reflects lapse", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u1", "12hours")
		f.clock.Advance(13 * time.Hour)

		status, err := f.subs.Status(ctx, "u1")
		require.NoError(t, err)
		require.False(t, status.Allowed)
		require.False(t, status.Subscription.Active)
	})

	t.Run("set admin toggles and keeps creation time", func(t *testing.T) {
		f := newFixture(t)
		created := f.clock.Now()

		p, err := f.subs.SetAdmin(ctx, "u1", true)
		require.NoError(t, err)
		require.True(t, p.IsAdmin)

		f.clock.Advance(time.Minute)
		p, err = f.subs.SetAdmin(ctx, "u1", false)
		require.NoError(t, err)
		require.False(t, p.IsAdmin)
		require.Equal(t, created, p.CreatedAt)
		require.Equal(t, created.Add(time.Minute), p.UpdatedAt)
	})

	t.Run("seed admins skips blanks", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.subs.SeedAdmins(ctx, []string{"a1", " ", "a2"}))

		for _, id := range []string{"a1", "a2"} {
			ent, err := f.entitle.CheckEntitlement(ctx, id)
			require.NoError(t, err)
			require.True(t, ent.IsAdmin)
		}
	})
}
