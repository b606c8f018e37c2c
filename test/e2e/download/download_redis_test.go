package download_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luofilm/luofilm/pkg/downloadsdk"
)

// TestRedisDriverFlow runs the core flow against the redis store driver.
func TestRedisDriverFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}
	o := startOrigin(t)
	networkName, redisURL := setupRedis(t)
	baseURL := setupDownloadContainer(t, serviceOptions{
		env: map[string]string{
			"STORE_DRIVER": "redis",
			"REDIS_URL":    redisURL,
		},
		networks:       []string{networkName},
		hostAccessPort: o.port,
	})
	ctx := t.Context()

	health, err := downloadsdk.NewClient(baseURL).GetReadiness(ctx)
	assertHealthy(t, health, err)

	_, err = adminClient(t, baseURL).GrantSubscription(ctx, "u1", "12hours")
	require.NoError(t, err)

	status, err := downloadsdk.NewClient(baseURL).Subscription(ctx, "u1")
	require.NoError(t, err)
	require.True(t, status.Allowed)
	require.Equal(t, "12hours", status.Subscription.PlanID)

	user := userClient(t, baseURL, "u1")
	auth, err := user.RequestDownload(ctx, filmRequest(o, "u1", "/film.mp4"))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = user.Download(ctx, auth.Token, &buf)
	require.NoError(t, err)
	require.Equal(t, filmBody, buf.String())

	_, err = user.ValidateToken(ctx, auth.Token)
	requireAPIError(t, err, http.StatusUnauthorized, downloadsdk.ErrorCodeTokenAlreadyUsed)
}
