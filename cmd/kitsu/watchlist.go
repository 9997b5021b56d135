package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func newWatchlistCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage the local watchlist",
	}
	cmd.AddCommand(
		newWatchlistListCmd(c),
		newWatchlistAddCmd(c),
		newWatchlistRemoveCmd(c),
		newWatchlistToggleCmd(c),
		newWatchlistProgressCmd(c),
		newWatchlistStatusCmd(c),
		newWatchlistStatsCmd(c),
	)
	return cmd
}

func (c *cli) printEntry(e domain.WatchlistEntry) {
	total := "?"
	if e.TotalEpisodes != nil {
		total = strconv.Itoa(*e.TotalEpisodes)
	}
	c.printf("%-14s %4d/%-4s %-40s %s\n", e.Status, e.CurrentEpisode, total, e.Title, e.AnimeID)
}

func (c *cli) printEntries(entries []domain.WatchlistEntry) error {
	if c.json {
		return c.printJSON(entries)
	}
	if len(entries) == 0 {
		c.printf("(empty)\n")
		return nil
	}
	for _, e := range entries {
		c.printEntry(e)
	}
	return nil
}

func (c *cli) showEntry(e domain.WatchlistEntry) error {
	if c.json {
		return c.printJSON(e)
	}
	c.printEntry(e)
	return nil
}

func newWatchlistListCmd(c *cli) *cobra.Command {
	var status, match string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			var filter *domain.WatchStatus
			if status != "" {
				st, err := domain.ParseWatchStatus(status)
				if err != nil {
					return err
				}
				filter = &st
			}
			entries, err := wl.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.printEntries(app.MatchTitle(entries, match))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filtre: watching, completed, plan-to-watch")
	cmd.Flags().StringVarP(&match, "match", "m", "", "Filtre fuzzy sur le titre")
	return cmd
}

type addFlags struct {
	poster string
	total  int
	kind   string
	status string
}

func (f *addFlags) register(cmd *cobra.Command, withStatus bool) {
	cmd.Flags().StringVar(&f.poster, "poster", "", "URL du poster")
	cmd.Flags().IntVar(&f.total, "total", -1, "Nombre total d'épisodes")
	cmd.Flags().StringVar(&f.kind, "type", "", "Type (TV, Movie, OVA...)")
	if withStatus {
		cmd.Flags().StringVar(&f.status, "status", "", "Statut initial (défaut: plan-to-watch)")
	}
}

func (f *addFlags) request(id string, title []string) (app.AddRequest, error) {
	req := app.AddRequest{
		AnimeID:   id,
		Title:     strings.Join(title, " "),
		PosterURL: f.poster,
		Type:      f.kind,
	}
	if req.Title == "" {
		req.Title = id
	}
	if f.total >= 0 {
		total := f.total
		req.TotalEpisodes = &total
	}
	if f.status != "" {
		st, err := domain.ParseWatchStatus(f.status)
		if err != nil {
			return app.AddRequest{}, err
		}
		req.Status = st
	}
	return req, nil
}

func newWatchlistAddCmd(c *cli) *cobra.Command {
	var flags addFlags
	cmd := &cobra.Command{
		Use:   "add <anime-id> [title...]",
		Short: "Add or replace an entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			req, err := flags.request(args[0], args[1:])
			if err != nil {
				return err
			}
			e, err := wl.Add(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.showEntry(e)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newWatchlistRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <anime-id>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			if err := wl.Remove(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove %s: %w", args[0], err)
			}
			c.printf("removed %s\n", args[0])
			return nil
		},
	}
}

func newWatchlistToggleCmd(c *cli) *cobra.Command {
	var flags addFlags
	cmd := &cobra.Command{
		Use:   "toggle <anime-id> [title...]",
		Short: "Remove the entry if present, otherwise add it as plan-to-watch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			req, err := flags.request(args[0], args[1:])
			if err != nil {
				return err
			}
			in, err := wl.Toggle(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(map[string]any{"animeId": req.AnimeID, "inWatchlist": in})
			}
			if in {
				c.printf("added %s\n", req.AnimeID)
			} else {
				c.printf("removed %s\n", req.AnimeID)
			}
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newWatchlistProgressCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <anime-id> <episode>",
		Short: "Set the current episode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			episode, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid episode %q", args[1])
			}
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			e, err := wl.UpdateProgress(cmd.Context(), args[0], episode)
			if err != nil {
				return fmt.Errorf("progress %s: %w", args[0], err)
			}
			return c.showEntry(e)
		},
	}
}

func newWatchlistStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <anime-id> <watching|completed|plan-to-watch>",
		Short: "Change the watch status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseWatchStatus(args[1])
			if err != nil {
				return err
			}
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			e, err := wl.UpdateStatus(cmd.Context(), args[0], st)
			if err != nil {
				return fmt.Errorf("status %s: %w", args[0], err)
			}
			return c.showEntry(e)
		},
	}
}

func newWatchlistStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show watchlist counters and recent titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := c.watchlistService(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := wl.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if c.json {
				return c.printJSON(stats)
			}
			c.printf("Total: %d\n", stats.Total)
			for _, st := range domain.AllWatchStatuses() {
				c.printf("  %-14s %d\n", st, stats.ByStatus[st])
			}
			if len(stats.RecentTitles) > 0 {
				c.printf("Recent: %s\n", strings.Join(stats.RecentTitles, ", "))
			}
			return nil
		},
	}
}

