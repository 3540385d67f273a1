// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package feed serves the public live activity feed (badge steals, new members,
daily claims) shown on the landing page.

Reads go through a short-lived Redis cache because every visitor polls it.
*/
package feed

import (
	"context"
	"time"
)

// Entry is one live feed item.
type Entry struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	ActorUsername string    `json:"actor_username"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
}

// CacheTTL bounds how stale a cached page of the feed may be.
const CacheTTL = 10 * time.Second

// Repository defines the data access contract for the feed.
type Repository interface {

	/*
		Recent returns the newest limit entries, newest first.
	*/
	Recent(context context.Context, limit int) ([]Entry, error)
}
