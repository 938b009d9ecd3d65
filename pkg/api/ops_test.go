package api

import (
	"context"
	"testing"

	"github.com/starrain-dev/botctl/internal/ctltest"
	booterrors "github.com/starrain-dev/botctl/internal/errors"
)

func authedClient(t *testing.T) (*Client, *ctltest.Server) {
	t.Helper()
	srv := ctltest.New()
	t.Cleanup(srv.Close)
	client := New(srv.URL())
	client.SetCredential(srv.IssueToken())
	return client, srv
}

func TestPluginLifecycle(t *testing.T) {
	client, _ := authedClient(t)
	ctx := context.Background()

	plugins, err := client.Plugins(ctx)
	if err != nil {
		t.Fatalf("Plugins() error = %v", err)
	}
	if len(plugins) == 0 {
		t.Fatal("Plugins() returned nothing")
	}

	if err := client.DisablePlugin(ctx, "echo"); err != nil {
		t.Fatalf("DisablePlugin() error = %v", err)
	}
	if err := client.EnablePlugin(ctx, "echo"); err != nil {
		t.Fatalf("EnablePlugin() error = %v", err)
	}
	if err := client.ReloadPlugin(ctx, "echo"); err != nil {
		t.Fatalf("ReloadPlugin() error = %v", err)
	}
}

func TestPermissions(t *testing.T) {
	client, _ := authedClient(t)
	ctx := context.Background()

	perms, err := client.Permissions(ctx)
	if err != nil {
		t.Fatalf("Permissions() error = %v", err)
	}
	if len(perms.Admins) == 0 {
		t.Error("Permissions() returned no admins")
	}

	if err := client.AddPermission(ctx, TierOwners, 333); err != nil {
		t.Errorf("AddPermission() error = %v", err)
	}
	if err := client.RemovePermission(ctx, TierDevelopers, 333); err != nil {
		t.Errorf("RemovePermission() error = %v", err)
	}
	if err := client.AddPermission(ctx, Tier("superusers"), 333); err == nil {
		t.Error("AddPermission() accepted an unknown tier")
	}
}

func TestBlacklist(t *testing.T) {
	client, _ := authedClient(t)
	ctx := context.Background()

	groups, err := client.Blacklist(ctx)
	if err != nil {
		t.Fatalf("Blacklist() error = %v", err)
	}
	if len(groups) == 0 {
		t.Error("Blacklist() returned nothing")
	}
	if err := client.BlacklistAdd(ctx, 42); err != nil {
		t.Errorf("BlacklistAdd() error = %v", err)
	}
	if err := client.BlacklistRemove(ctx, 42); err != nil {
		t.Errorf("BlacklistRemove() error = %v", err)
	}
}

func TestLogs(t *testing.T) {
	client, _ := authedClient(t)

	logs, err := client.Logs(context.Background(), 25)
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}
	if len(logs) != 25 {
		t.Errorf("Logs(25) returned %d lines", len(logs))
	}
}

func TestSendMessageValidation(t *testing.T) {
	client, _ := authedClient(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     SendMessageRequest
		wantErr bool
	}{
		{"private_ok", SendMessageRequest{Type: "private", UserID: 111, Message: "hi"}, false},
		{"group_ok", SendMessageRequest{Type: "group", GroupID: 222, Message: "hi"}, false},
		{"private_missing_user", SendMessageRequest{Type: "private", Message: "hi"}, true},
		{"group_missing_group", SendMessageRequest{Type: "group", Message: "hi"}, true},
		{"bad_type", SendMessageRequest{Type: "broadcast", UserID: 1, Message: "hi"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := client.SendMessage(ctx, tc.req)
			if (err != nil) != tc.wantErr {
				t.Errorf("SendMessage() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRoster(t *testing.T) {
	client, _ := authedClient(t)
	ctx := context.Background()

	friends, err := client.Friends(ctx)
	if err != nil {
		t.Fatalf("Friends() error = %v", err)
	}
	if len(friends) == 0 || friends[0].UserID == 0 {
		t.Errorf("Friends() = %+v", friends)
	}

	groups, err := client.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups() error = %v", err)
	}
	if len(groups) == 0 || groups[0].GroupID == 0 {
		t.Errorf("Groups() = %+v", groups)
	}
}

func TestRestartRequiresConfirmation(t *testing.T) {
	client, _ := authedClient(t)
	ctx := context.Background()

	err := client.Restart(ctx, false)
	if !booterrors.Is(err, booterrors.CodeNotConfirmed) {
		t.Fatalf("Restart(false) error = %v, want local refusal", err)
	}
	err = client.Shutdown(ctx, false)
	if !booterrors.Is(err, booterrors.CodeNotConfirmed) {
		t.Fatalf("Shutdown(false) error = %v, want local refusal", err)
	}

	if err := client.Restart(ctx, true); err != nil {
		t.Errorf("Restart(true) error = %v", err)
	}
	if err := client.Shutdown(ctx, true); err != nil {
		t.Errorf("Shutdown(true) error = %v", err)
	}
}

func TestLogout(t *testing.T) {
	client, _ := authedClient(t)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if client.Credential() != "" {
		t.Error("Logout() must clear the credential")
	}
}
