// ABOUTME: Operator CLI for bako-api user, workspace and session management
// ABOUTME: Talks directly to the SQLite store; colored tabular output

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/petertonysmith94/bako-safe-api/internal/config"
	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

const banner = `
 _           _                          _           _
| |__   __ _| | _____         __ _  __| |_ __ ___ (_)_ __
| '_ \ / _' | |/ / _ \ _____ / _' |/ _' | '_ ' _ \| | '_ \
| |_) | (_| |   < (_) |_____| (_| | (_| | | | | | | | | | |
|_.__/ \__,_|_|\_\___/       \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "users":
		err = withStore(func(ctx context.Context, st *store.SQLiteStore) error {
			return cmdUsers(ctx, st)
		})
	case "workspaces":
		err = withStore(func(ctx context.Context, st *store.SQLiteStore) error {
			return cmdWorkspaces(ctx, st, args)
		})
	case "sessions":
		err = withStore(func(ctx context.Context, st *store.SQLiteStore) error {
			return cmdSessions(ctx, st)
		})
	case "revoke":
		err = withStore(func(ctx context.Context, st *store.SQLiteStore) error {
			return cmdRevoke(ctx, st, args)
		})
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: bako-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  users                 List registered users")
	fmt.Println("  workspaces [user-id]  List workspaces, optionally for one user")
	fmt.Println("  sessions              List sessions with liveness status")
	fmt.Println("  revoke <user-id>      Revoke a user's live session")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  BAKO_CONFIG           Config file path (default: ~/.config/bako/api.yaml)")
	fmt.Println()
}

// withStore opens the configured database, runs fn and closes the store.
func withStore(fn func(context.Context, *store.SQLiteStore) error) error {
	configPath := os.Getenv("BAKO_CONFIG")
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		configPath = homeDir + "/.config/bako/api.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fn(ctx, st)
}

func cmdUsers(ctx context.Context, st *store.SQLiteStore) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users registered.")
		return nil
	}

	color.Cyan("Users (%d):\n", len(users))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tADDRESS\tNAME\tCREATED")
	fmt.Fprintln(w, "  --\t-------\t----\t-------")

	for _, u := range users {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			truncate(u.ID, 12), truncate(u.Address, 24), truncate(u.Name, 20),
			u.CreatedAt.Format("Jan 02 15:04"))
	}
	return w.Flush()
}

func cmdWorkspaces(ctx context.Context, st *store.SQLiteStore, args []string) error {
	var workspaces []*store.Workspace
	var err error

	if len(args) > 0 {
		workspaces, err = st.ListWorkspacesByUser(ctx, args[0])
	} else {
		var users []*store.User
		users, err = st.ListUsers(ctx)
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		seen := make(map[string]bool)
		for _, u := range users {
			owned, lerr := st.ListWorkspacesByUser(ctx, u.ID)
			if lerr != nil {
				return fmt.Errorf("listing workspaces: %w", lerr)
			}
			for _, ws := range owned {
				if !seen[ws.ID] {
					seen[ws.ID] = true
					workspaces = append(workspaces, ws)
				}
			}
		}
	}
	if err != nil {
		return fmt.Errorf("listing workspaces: %w", err)
	}

	if len(workspaces) == 0 {
		fmt.Println("No workspaces found.")
		return nil
	}

	color.Cyan("Workspaces (%d):\n", len(workspaces))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tOWNER\tSINGLE\tMEMBERS")
	fmt.Fprintln(w, "  --\t----\t-----\t------\t-------")

	for _, ws := range workspaces {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%v\t%d\n",
			truncate(ws.ID, 12), truncate(ws.Name, 24), truncate(ws.OwnerID, 12),
			ws.Single, len(ws.Members))
	}
	return w.Flush()
}

func cmdSessions(ctx context.Context, st *store.SQLiteStore) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}

	color.Cyan("Sessions (%d):\n", len(sessions))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tUSER\tWORKSPACE\tEXPIRES\tSTATUS")
	fmt.Fprintln(w, "  --\t----\t---------\t-------\t------")

	now := time.Now()
	for _, s := range sessions {
		var status string
		switch {
		case s.Revoked():
			status = color.RedString("revoked")
		case now.After(s.ExpiresAt):
			status = color.YellowString("expired")
		default:
			status = color.GreenString("live")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			truncate(s.ID, 12), truncate(s.UserID, 12), truncate(s.WorkspaceID, 12),
			s.ExpiresAt.Format("Jan 02 15:04"), status)
	}
	return w.Flush()
}

func cmdRevoke(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: bako-admin revoke <user-id>")
	}
	userID := args[0]

	session, err := st.GetLiveSessionByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("looking up live session for %s: %w", userID, err)
	}

	if err := st.RevokeSession(ctx, session.ID); err != nil {
		return fmt.Errorf("revoking session %s: %w", session.ID, err)
	}

	color.Green("Revoked session %s for user %s\n", session.ID, userID)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
