package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nebari-dev/roster/internal/config"
	"github.com/nebari-dev/roster/internal/logger"
	"github.com/nebari-dev/roster/internal/models"
	"github.com/nebari-dev/roster/internal/people"
	"github.com/nebari-dev/roster/internal/roleclient"
	"github.com/nebari-dev/roster/internal/roster"
	"github.com/nebari-dev/roster/internal/store"
	"gopkg.in/yaml.v3"
)

// app is everything a command needs to talk to one project.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	client *roleclient.Client
	people *people.Directory
	page   *roster.Page
}

func newApp() (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	log := logger.Init(cfg.Log.Format, cfg.Log.Level)

	var st *store.Store
	if cfg.Store.DataDir != "" {
		st, err = store.Open(cfg.Store.DataDir)
	} else {
		st, err = store.New()
	}
	if err != nil {
		return nil, fmt.Errorf("opening local cache: %w", err)
	}

	var client *roleclient.Client
	if cfg.Server.Token != "" {
		client = roleclient.New(cfg.Server.URL, cfg.Server.Token)
	} else {
		client = roleclient.NewWithoutAuth(cfg.Server.URL)
	}
	client.SetTimeout(cfg.Server.Timeout())

	dir := people.NewDirectory(cfg.People.Limit)
	page, err := roster.New(roster.Config{
		Client: client,
		Store:  st,
		People: dir,
		Logger: log,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := page.Load(); err != nil {
		log.Warn("could not read cached roles", "error", err)
	}

	return &app{cfg: cfg, logger: log, store: st, client: client, people: dir, page: page}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing local cache", "error", err)
	}
}

// person returns the known person with uid, or a bare person carrying only the uid.
func (a *app) person(uid string) models.Person {
	if p, ok := a.people.Lookup(uid); ok {
		return p
	}
	return models.Person{UID: uid}
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case d < 30*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		months := int(d.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	}
}

func formatPlayers(players []models.Person) string {
	if len(players) == 0 {
		return "-"
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.DisplayName()
	}
	return strings.Join(names, ", ")
}

func writeRoleTable(w io.Writer, roles []models.Role) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOLOR\tTERM\tPLAYERS")
	for _, r := range roles {
		color := r.Color
		if color == "" {
			color = "-"
		}
		term := r.CurrentTerm
		if term == "" {
			term = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, color, term, formatPlayers(r.Players))
	}
	return tw.Flush()
}

// roleView is what `role show` prints.
type roleView struct {
	Role        *models.Role `json:"role"`
	CurrentTerm *models.Term `json:"currentTerm"`
}

// writeRole prints a role as json, yaml or a short text summary.
func writeRole(w io.Writer, format string, role *models.Role, term *models.Term) error {
	view := roleView{Role: role, CurrentTerm: term}

	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		// go through JSON so unknown server fields are kept
		data, err := json.Marshal(view)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Name:\t%s\n", role.Name)
		fmt.Fprintf(tw, "Color:\t%s\n", orDash(role.Color))
		fmt.Fprintf(tw, "Players:\t%s\n", formatPlayers(role.Players))
		termKey := "-"
		if term != nil {
			termKey = term.Key
		}
		fmt.Fprintf(tw, "Current term:\t%s\n", termKey)
		fmt.Fprintf(tw, "Terms:\t%d\n", len(role.Terms))
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}

// confirm asks a yes/no question on stderr and reads the answer from r.
func confirm(r io.Reader, question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	reader := bufio.NewReader(r)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
