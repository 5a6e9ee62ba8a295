package database

import "context"

// The methods below open the database on demand so callers can hold a
// *Handle without caring whether a connection exists yet.

func (h *Handle) InsertPost(ctx context.Context, p *Post) error {
	db, err := h.Get(ctx)
	if err != nil {
		return err
	}
	return db.InsertPost(ctx, p)
}

func (h *Handle) GetPost(ctx context.Context, userID string, id int64) (*Post, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.GetPost(ctx, userID, id)
}

func (h *Handle) ListPostsByUser(ctx context.Context, userID string, limit, offset int) ([]Post, int, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return nil, 0, err
	}
	return db.ListPostsByUser(ctx, userID, limit, offset)
}

func (h *Handle) RecentPostContent(ctx context.Context, userID string, limit int) (string, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return "", err
	}
	return db.RecentPostContent(ctx, userID, limit)
}

func (h *Handle) IncrementDailyUsage(ctx context.Context, userID string) (int, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return 0, err
	}
	return db.IncrementDailyUsage(ctx, userID)
}

func (h *Handle) GetDailyUsage(ctx context.Context, userID string) (int, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return 0, err
	}
	return db.GetDailyUsage(ctx, userID)
}

func (h *Handle) ResetDailyUsage(ctx context.Context) (int64, error) {
	db, err := h.Get(ctx)
	if err != nil {
		return 0, err
	}
	return db.ResetDailyUsage(ctx)
}

// HealthCheck pings the database, opening it if needed.
func (h *Handle) HealthCheck(ctx context.Context) error {
	db, err := h.Get(ctx)
	if err != nil {
		return err
	}
	return db.HealthCheck(ctx)
}
