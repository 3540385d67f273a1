// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"log/slog"
	"time"
)

// refreshLoop refreshes the session margin before it expires.
//
// Every session change re-arms the timer through client.kick. A failed
// refresh is retried after refreshRetryInterval; a rejected refresh token
// signs the client out inside RefreshSession.
func (client *Client) refreshLoop(ctx context.Context) {
	defer client.wg.Done()

	timer := time.NewTimer(client.nextRefresh())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-client.kick:
			resetTimer(timer, client.nextRefresh())

		case <-timer.C:
			if client.currentSession() == nil {
				resetTimer(timer, time.Hour)
				continue
			}

			refreshCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			_, err := client.Auth().RefreshSession(refreshCtx)
			cancel()

			if err != nil {
				client.log.Warn("backend_auto_refresh_failed", slog.String("error", err.Error()))
				resetTimer(timer, refreshRetryInterval)
				continue
			}
			// RefreshSession kicked the loop; drain it so the new expiry arms the timer.
			select {
			case <-client.kick:
			default:
			}
			resetTimer(timer, client.nextRefresh())
		}
	}
}

// nextRefresh is the wait until the current session needs refreshing.
func (client *Client) nextRefresh() time.Duration {
	session := client.currentSession()
	if session == nil {
		return time.Hour
	}

	wait := session.Expiry().Add(-client.margin).Sub(client.now())
	if wait < 0 {
		return 0
	}
	return wait
}

func resetTimer(timer *time.Timer, wait time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(wait)
}
