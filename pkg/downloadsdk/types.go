package downloadsdk

// DownloadRequest asks the service to authorize one title for one user.
type DownloadRequest struct {
	UserID      string `json:"userId" example:"u2"`
	ContentID   string `json:"contentId" example:"c1"`
	ContentType string `json:"contentType,omitempty" example:"movie"`
	StreamURL   string `json:"streamUrl" example:"https://cdn.example/film.mp4"`
	Title       string `json:"title" example:"Demo"`
}

// DownloadResponse carries the issued single-use link.
type DownloadResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl"`
	Token       string `json:"token"`
	ExpiresAt   string `json:"expiresAt" example:"2026-05-04T11:00:00Z"` // RFC3339, UTC
	Message     string `json:"message" example:"Download authorized"`
}

type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// DownloadInfo describes a completed Download.
type DownloadInfo struct {
	Filename    string
	ContentType string
	Bytes       int64
}

// Plan is one entry of the subscription catalogue. Price is in Currency.
type Plan struct {
	ID              string `json:"id" example:"1month"`
	Name            string `json:"name" example:"1 Month"`
	DurationSeconds int64  `json:"durationSeconds" example:"2592000"`
	Price           int64  `json:"price" example:"8000"`
	Currency        string `json:"currency" example:"UGX"`
}

type PlansResponse struct {
	Plans []Plan `json:"plans"`
}

// Subscription is a stored subscription record. Times are RFC3339 UTC.
type Subscription struct {
	PlanID    string `json:"planId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Active    bool   `json:"active"`
}

// SubscriptionResponse reports whether a user may download right now.
type SubscriptionResponse struct {
	UserID       string        `json:"userId"`
	Allowed      bool          `json:"allowed"`
	IsAdmin      bool          `json:"isAdmin"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

type GrantSubscriptionRequest struct {
	PlanID string `json:"planId" example:"1month"`
}

type ProfileRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

type ProfileResponse struct {
	UserID    string `json:"userId"`
	IsAdmin   bool   `json:"isAdmin"`
	UpdatedAt string `json:"updatedAt"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Store string `json:"store"`
}
