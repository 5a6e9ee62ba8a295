package api

import (
	"net/http"
	"time"
)

type usageResponse struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Count  int    `json:"count"`
}

// UsageHandler serves GET /api/v1/usage: how many posts the caller generated today.
type UsageHandler struct {
	posts PostStore
	now   func() time.Time
}

func NewUsageHandler(posts PostStore) *UsageHandler {
	return &UsageHandler{posts: posts, now: time.Now}
}

func (h *UsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	count, err := h.posts.GetDailyUsage(r.Context(), user)
	if err != nil {
		writeStoreError(w, r, err, "failed to load usage")
		return
	}
	WriteJSON(w, http.StatusOK, usageResponse{
		UserID: user,
		Date:   h.now().Format(time.DateOnly),
		Count:  count,
	})
}
