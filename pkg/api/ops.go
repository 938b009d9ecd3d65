package api

import (
	"context"
	"fmt"
	"net/http"

	booterrors "github.com/starrain-dev/botctl/internal/errors"
)

// Tier identifies one of the controller's three access-list tiers.
type Tier string

const (
	TierAdmins     Tier = "admins"
	TierOwners     Tier = "owners"
	TierDevelopers Tier = "developers"
)

// Valid reports whether the tier is one of the three known access lists.
func (t Tier) Valid() bool {
	return t == TierAdmins || t == TierOwners || t == TierDevelopers
}

// LoginResult is the controller's response to a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// AdapterStatus describes one platform adapter's connectivity.
type AdapterStatus struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// SystemInfo is the host environment portion of a status report.
type SystemInfo struct {
	Platform   string  `json:"platform"`
	CPUCores   int     `json:"cpu_cores"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Status is the controller's status report.
type Status struct {
	QQ              int64           `json:"qq"`
	Uptime          float64         `json:"uptime"`
	UptimeFormatted string          `json:"uptime_formatted"`
	Running         bool            `json:"running"`
	Adapters        []AdapterStatus `json:"adapters"`
	PluginsCount    int             `json:"plugins_count"`
	EnabledPlugins  int             `json:"enabled_plugins_count"`
	System          SystemInfo      `json:"system"`
}

// Plugin describes one installed bot plugin.
type Plugin struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// Permissions lists the members of the three access-list tiers.
type Permissions struct {
	Admins     []int64 `json:"admins"`
	Owners     []int64 `json:"owners"`
	Developers []int64 `json:"developers"`
}

// Contact is one roster entry from the friends query.
type Contact struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Remark   string `json:"remark"`
}

// Group is one roster entry from the groups query.
type Group struct {
	GroupID     int64  `json:"group_id"`
	GroupName   string `json:"group_name"`
	MemberCount int    `json:"member_count"`
}

// SendMessageRequest describes an outbound message: Type is "private"
// (requires UserID) or "group" (requires GroupID).
type SendMessageRequest struct {
	Type    string `json:"message_type"`
	UserID  int64  `json:"user_id,omitempty"`
	GroupID int64  `json:"group_id,omitempty"`
	Message string `json:"message"`
}

type idBody struct {
	QQ int64 `json:"qq"`
}

type groupBody struct {
	GroupID int64 `json:"group_id"`
}

type nameBody struct {
	PluginName string `json:"plugin_name"`
}

type confirmBody struct {
	Confirm bool `json:"confirm"`
}

// Login exchanges a username and password for a bearer credential and stores
// it on the client. Latency-sensitive: uses the shorter login deadline.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.call(ctx, http.MethodPost, "/api/login", body, &out, c.loginTimeout); err != nil {
		return nil, err
	}
	c.SetCredential(out.Token)
	return &out, nil
}

// Logout revokes the held credential on the controller and clears it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/api/logout", nil, nil, c.timeout)
	c.ClearCredential()
	return err
}

// Nonce fetches a fresh single-use connection challenge. The controller
// invalidates each challenge after one use; never reuse the value across
// connection attempts.
func (c *Client) Nonce(ctx context.Context) (string, error) {
	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/ws/nonce", nil, &out, c.timeout); err != nil {
		return "", err
	}
	return out.Nonce, nil
}

// Status queries the controller's status report.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.call(ctx, http.MethodGet, "/api/status", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plugins lists installed plugins and their enablement.
func (c *Client) Plugins(ctx context.Context) ([]Plugin, error) {
	var out struct {
		Plugins []Plugin `json:"plugins"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/plugins", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Plugins, nil
}

// EnablePlugin enables a plugin by name.
func (c *Client) EnablePlugin(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodPost, "/api/plugins/enable", nameBody{name}, nil, c.timeout)
}

// DisablePlugin disables a plugin by name.
func (c *Client) DisablePlugin(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodPost, "/api/plugins/disable", nameBody{name}, nil, c.timeout)
}

// ReloadPlugin reloads a plugin by name.
func (c *Client) ReloadPlugin(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodPost, "/api/plugins/reload", nameBody{name}, nil, c.timeout)
}

// Permissions lists the three access-list tiers.
func (c *Client) Permissions(ctx context.Context) (*Permissions, error) {
	var out Permissions
	if err := c.call(ctx, http.MethodGet, "/api/permissions/admins", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddPermission adds an account to one of the access-list tiers.
func (c *Client) AddPermission(ctx context.Context, tier Tier, id int64) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown permission tier %q", tier)
	}
	path := fmt.Sprintf("/api/permissions/%s/add", tier)
	return c.call(ctx, http.MethodPost, path, idBody{id}, nil, c.timeout)
}

// RemovePermission removes an account from one of the access-list tiers.
func (c *Client) RemovePermission(ctx context.Context, tier Tier, id int64) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown permission tier %q", tier)
	}
	path := fmt.Sprintf("/api/permissions/%s/remove", tier)
	return c.call(ctx, http.MethodPost, path, idBody{id}, nil, c.timeout)
}

// Blacklist lists the group identifiers the bot refuses to serve.
func (c *Client) Blacklist(ctx context.Context) ([]int64, error) {
	var out struct {
		Groups []int64 `json:"groups"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/blacklist", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// BlacklistAdd adds a group to the deny list.
func (c *Client) BlacklistAdd(ctx context.Context, groupID int64) error {
	return c.call(ctx, http.MethodPost, "/api/blacklist/add", groupBody{groupID}, nil, c.timeout)
}

// BlacklistRemove removes a group from the deny list.
func (c *Client) BlacklistRemove(ctx context.Context, groupID int64) error {
	return c.call(ctx, http.MethodPost, "/api/blacklist/remove", groupBody{groupID}, nil, c.timeout)
}

// Logs retrieves up to lines recent log lines. The controller caps the count
// server-side (500 at the time of writing).
func (c *Client) Logs(ctx context.Context, lines int) ([]string, error) {
	var out struct {
		Logs []string `json:"logs"`
	}
	path := fmt.Sprintf("/api/logs?lines=%d", lines)
	if err := c.call(ctx, http.MethodGet, path, nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// SendMessage delivers a message through the bot's live adapter.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	switch req.Type {
	case "private":
		if req.UserID == 0 {
			return fmt.Errorf("private message requires a user id")
		}
	case "group":
		if req.GroupID == 0 {
			return fmt.Errorf("group message requires a group id")
		}
	default:
		return fmt.Errorf("message type must be private or group, got %q", req.Type)
	}
	return c.call(ctx, http.MethodPost, "/api/message/send", req, nil, c.timeout)
}

// Friends queries the bot's contact roster.
func (c *Client) Friends(ctx context.Context) ([]Contact, error) {
	var out struct {
		Friends []Contact `json:"friends"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/friends", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Friends, nil
}

// Groups queries the bot's group roster.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var out struct {
		Groups []Group `json:"groups"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/groups", nil, &out, c.timeout); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// Restart asks the controller to restart the bot process. Refused locally
// when confirm is false; the controller enforces the same flag.
func (c *Client) Restart(ctx context.Context, confirm bool) error {
	if !confirm {
		return booterrors.New(booterrors.CodeNotConfirmed)
	}
	return c.call(ctx, http.MethodPost, "/api/system/restart", confirmBody{true}, nil, c.timeout)
}

// Shutdown asks the controller to stop the bot process. Refused locally when
// confirm is false; the controller enforces the same flag.
func (c *Client) Shutdown(ctx context.Context, confirm bool) error {
	if !confirm {
		return booterrors.New(booterrors.CodeNotConfirmed)
	}
	return c.call(ctx, http.MethodPost, "/api/system/shutdown", confirmBody{true}, nil, c.timeout)
}
