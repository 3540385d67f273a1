// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/pkg/convert"
)

const (
	procedurePrefix = "bot_"
	argumentPrefix  = "p_"
	argDiscordID    = "p_discord_id"
	amountSuffix    = "amount"
)

var (
	actionRegex    = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,40}$`)
	snowflakeRegex = regexp.MustCompile(`^[0-9]{15,21}$`)
)

// ProcedureCaller invokes allow-listed stored procedures.
type ProcedureCaller interface {
	Allowed(name string) bool
	Call(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// BridgeRequest is one bot action on behalf of a Discord user.
type BridgeRequest struct {
	Action    string         `json:"action"`
	DiscordID string         `json:"discordId"`
	Params    map[string]any `json:"params"`
}

// Bridge maps bot actions onto the economy stored procedures.
type Bridge struct {
	caller ProcedureCaller
}

// NewBridge creates a [Bridge] over caller.
func NewBridge(caller ProcedureCaller) *Bridge {
	return &Bridge{caller: caller}
}

// ProcedureName maps an action ("claim-daily") to its procedure ("bot_claim_daily").
func ProcedureName(action string) string {
	return procedurePrefix + strings.ReplaceAll(action, "-", "_")
}

/*
Execute runs the procedure behind input.Action.

The Discord ID is always passed as p_discord_id; every param key is passed
with a p_ prefix. Amount params ("amount", "bet_amount") are truncated to
whole coins.

Returns:
  - json.RawMessage: The procedure's JSON result
  - error: BadRequest for malformed input or an unknown action
*/
func (bridge *Bridge) Execute(ctx context.Context, input BridgeRequest) (json.RawMessage, error) {
	if !actionRegex.MatchString(input.Action) {
		return nil, apperr.BadRequest("Invalid action")
	}
	if !snowflakeRegex.MatchString(input.DiscordID) {
		return nil, apperr.BadRequest("Invalid discordId")
	}

	name := ProcedureName(input.Action)
	if !bridge.caller.Allowed(name) {
		return nil, apperr.BadRequest(fmt.Sprintf("Unknown action %q", input.Action))
	}

	args := make(map[string]any, len(input.Params)+1)
	for key, value := range input.Params {
		key = strings.TrimPrefix(key, argumentPrefix)
		if strings.HasSuffix(key, amountSuffix) {
			amount, err := wholeCoins(value)
			if err != nil {
				return nil, apperr.BadRequest(fmt.Sprintf("Param %q must be numeric", key))
			}
			value = amount
		} else if number, ok := value.(json.Number); ok {
			value = plainNumber(number)
		}
		args[argumentPrefix+key] = value
	}
	args[argDiscordID] = input.DiscordID

	data, err := bridge.caller.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(ctx).Info("bot_bridge_action",
		slog.String("action", input.Action),
		slog.String("procedure", name),
	)

	return data, nil
}

// wholeCoins returns value as an int64 when it fits, otherwise as a decimal string.
func wholeCoins(value any) (any, error) {
	amount, err := convert.UCToBigInt(value)
	if err != nil {
		return nil, err
	}
	if amount.IsInt64() {
		return amount.Int64(), nil
	}
	return amount.String(), nil
}

// plainNumber turns a decoded [json.Number] into an int64 or float64 for the driver.
func plainNumber(number json.Number) any {
	if integer, err := number.Int64(); err == nil {
		return integer
	}
	if float, err := number.Float64(); err == nil {
		return float
	}
	return number.String()
}
