// Command hinagata-sidebar is an interactive terminal client for a Hinagata
// server. It mirrors the agent catalog into a local SQLite store so the
// sidebar renders instantly on startup, and pushes composed prompts to
// stdout whenever a form value changes.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/ashita-ai/hinagata/sdk/go/hinagata"
	"github.com/ashita-ai/hinagata/sidebar"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	baseURL := os.Getenv("HINAGATA_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := hinagata.NewClient(hinagata.Config{BaseURL: baseURL})
	if err != nil {
		return err
	}

	session := sidebar.NewSession(store, client)
	if err := session.Init(ctx); err != nil {
		slog.Warn("session restore failed", "error", err)
	}

	ui := &cli{
		session: session,
		out:     os.Stdout,
	}
	return ui.loop(ctx)
}

// openStore places the local mirror under the user config directory, falling
// back to a temp file when the home directory is unavailable.
func openStore() (sidebar.Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return sidebar.NewSQLiteStore(filepath.Join(os.TempDir(), "hinagata-sidebar.db"))
	}
	return sidebar.NewSQLiteStore(filepath.Join(dir, "hinagata", "sidebar.db"))
}

type cli struct {
	session *sidebar.Session
	out     *os.File

	selected uuid.UUID
	form     *sidebar.Form
}

func (c *cli) loop(ctx context.Context) error {
	fmt.Fprintln(c.out, `hinagata sidebar — type "help" for commands`)
	c.render(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := c.dispatch(ctx, cmd, arg); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

func (c *cli) dispatch(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "help":
		c.help()
		return nil
	case "register":
		username, password, ok := strings.Cut(arg, " ")
		if !ok {
			return fmt.Errorf("usage: register <username> <password>")
		}
		user, err := c.session.Register(ctx, username, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "registered %s — now log in\n", user.Username)
		return nil
	case "login":
		username, password, ok := strings.Cut(arg, " ")
		if !ok {
			return fmt.Errorf("usage: login <username> <password>")
		}
		if err := c.session.Login(ctx, username, password); err != nil {
			return err
		}
		c.render(ctx)
		return nil
	case "logout":
		if err := c.session.Logout(ctx); err != nil {
			return err
		}
		c.selected = uuid.Nil
		c.form = nil
		c.render(ctx)
		return nil
	case "list":
		c.render(ctx)
		return nil
	case "refresh":
		if _, err := c.session.Refresh(ctx); err != nil {
			return err
		}
		c.render(ctx)
		return nil
	case "select":
		return c.selectAgent(ctx, arg)
	case "set":
		if c.form == nil {
			return fmt.Errorf("no agent selected")
		}
		placeholder, value, _ := strings.Cut(arg, " ")
		if placeholder == "" {
			return fmt.Errorf("usage: set <placeholder> [value]")
		}
		return c.form.SetValue(placeholder, value)
	case "clear":
		if c.form == nil {
			return fmt.Errorf("no agent selected")
		}
		if arg == "" {
			return fmt.Errorf("usage: clear <placeholder>")
		}
		return c.form.ClearValue(arg)
	case "push":
		if c.form == nil {
			return fmt.Errorf("no agent selected")
		}
		return c.form.Push()
	case "clone":
		id, err := c.resolveAgent(ctx, arg)
		if err != nil {
			return err
		}
		clone, err := c.session.CloneAgent(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "cloned as %q (%s)\n", clone.Name, clone.ID)
		c.render(ctx)
		return nil
	case "delete":
		id, err := c.resolveAgent(ctx, arg)
		if err != nil {
			return err
		}
		if err := c.session.DeleteAgent(ctx, id); err != nil {
			return err
		}
		if id == c.selected {
			c.selected = uuid.Nil
			c.form = nil
		}
		c.render(ctx)
		return nil
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (c *cli) selectAgent(ctx context.Context, arg string) error {
	id, err := c.resolveAgent(ctx, arg)
	if err != nil {
		return err
	}
	agents, err := c.session.Agents(ctx)
	if err != nil {
		return err
	}
	for _, def := range agents {
		if def.ID == id {
			c.selected = id
			c.form = sidebar.NewForm(def, sidebar.WriterTarget{W: c.out})
			c.render(ctx)
			return nil
		}
	}
	return fmt.Errorf("no agent %s", id)
}

// resolveAgent accepts a full UUID, a unique id prefix, or a 1-based index
// into the rendered list.
func (c *cli) resolveAgent(ctx context.Context, arg string) (uuid.UUID, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return uuid.Nil, fmt.Errorf("agent id required")
	}
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	agents, err := c.session.Agents(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var index int
	if _, err := fmt.Sscanf(arg, "%d", &index); err == nil && index >= 1 && index <= len(agents) {
		return agents[index-1].ID, nil
	}

	var match uuid.UUID
	for _, def := range agents {
		if strings.HasPrefix(def.ID.String(), arg) {
			if match != uuid.Nil {
				return uuid.Nil, fmt.Errorf("ambiguous prefix %q", arg)
			}
			match = def.ID
		}
	}
	if match == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no agent matches %q", arg)
	}
	return match, nil
}

func (c *cli) render(ctx context.Context) {
	agents, err := c.session.Agents(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return
	}

	var values map[string]string
	if c.form != nil {
		values = c.form.Values()
	}
	view := sidebar.Render(sidebar.State{
		User:       c.session.User(),
		Agents:     agents,
		SelectedID: c.selected,
		Values:     values,
	})

	if view.LoggedIn {
		fmt.Fprintf(c.out, "logged in as %s\n", view.Username)
	} else {
		fmt.Fprintln(c.out, "logged out — login <username> <password>")
	}

	for i, item := range view.Agents {
		marker := " "
		if item.Selected {
			marker = "*"
		}
		var caps []string
		if item.CanEdit {
			caps = append(caps, "edit")
		}
		if item.CanDelete {
			caps = append(caps, "delete")
		}
		if item.CanClone {
			caps = append(caps, "clone")
		}
		fmt.Fprintf(c.out, "%s %2d. %-24s by %-12s %s\n",
			marker, i+1, item.Name, item.Owner, strings.Join(caps, ","))
	}

	for _, field := range view.Fields {
		value := field.Value
		if !field.HasValue {
			value = field.Default
		}
		fmt.Fprintf(c.out, "    %s [%s] = %q\n", field.Label, field.Type, value)
	}
}

func (c *cli) help() {
	fmt.Fprint(c.out, `commands:
  register <user> <pass>   create an account
  login <user> <pass>      log in and persist the token
  logout                   forget the token and local mirror
  list                     show the agent catalog
  refresh                  drop the mirror and refetch
  select <id|index>        open an agent's form
  set <placeholder> [v]    set a form value (empty value overrides the default)
  clear <placeholder>      clear a form value (default applies again)
  push                     re-push the composed prompt
  clone <id|index>         clone an agent into your account
  delete <id|index>        delete an agent you own
  quit
`)
}
