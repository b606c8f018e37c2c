/*
Package downloadsdk is a Go client for the LUO FILM download service.

A download is a two step exchange. The caller first asks the service to
authorize a title for a user, which checks the user's subscription and
returns a single-use link valid for one hour. The link is then redeemed,
which streams the film:

	client := downloadsdk.NewClient("https://api.luofilm.example")

	auth, err := client.RequestDownload(ctx, downloadsdk.DownloadRequest{
		UserID:    "u2",
		ContentID: "c1",
		StreamURL: "https://cdn.example/film.mp4",
		Title:     "Demo",
	})
	var apiErr *downloadsdk.APIError
	if errors.As(err, &apiErr) && apiErr.RequiresSubscription() {
		// send the user to the plans page
	}

	f, _ := os.Create("Demo.mp4")
	info, err := client.Download(ctx, auth.Token, f)

Redeeming spends the token whether or not the transfer succeeds, and
ValidateToken spends it too.

When the service runs with bearer authentication, set Client.BearerToken.
The token subject must match DownloadRequest.UserID, and the admin calls
(GrantSubscription, SetAdmin) need the admin:write scope.
*/
package downloadsdk
