// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LiveFeedTable represents the 'public.live_feed' table
type LiveFeedTable struct {
	Table         string
	ID            string
	Kind          string
	ActorUsername string
	Message       string
	CreatedAt     string
}

// LiveFeed is the schema definition for public.live_feed
var LiveFeed = LiveFeedTable{
	Table:         "public.live_feed",
	ID:            "id",
	Kind:          "kind",
	ActorUsername: "actor_username",
	Message:       "message",
	CreatedAt:     "created_at",
}

// Columns returns all standard column names
func (t LiveFeedTable) Columns() []string {
	return []string{
		t.ID, t.Kind, t.ActorUsername, t.Message, t.CreatedAt,
	}
}
