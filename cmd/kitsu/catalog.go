package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/kitsu/internal/app"
	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

func newHomeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the home feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := app.NewHomeController(c.catalogService(), c.logger)
			defer ctrl.Close()
			ctrl.Load()
			ctrl.Wait()

			st := ctrl.State()
			if st.Phase != app.PhaseSuccess {
				return fmt.Errorf("%s", st.Message)
			}
			if c.json {
				return c.printJSON(st.Feed)
			}
			feed := st.Feed
			c.printRail("Spotlight", feed.Spotlight)
			c.printRail("Trending", feed.Trending)
			c.printRail("Top 10 today", feed.Top10Today)
			c.printRail("Latest episodes", feed.LatestEpisodes)
			c.printRail("Top airing", feed.TopAiring)
			c.printRail("Most popular", feed.MostPopular)
			c.printf("\nGenres: %s\n", strings.Join(feed.Genres, ", "))
			return nil
		},
	}
}

func (c *cli) printRail(title string, cards []app.AnimeCard) {
	if len(cards) == 0 {
		return
	}
	c.printf("\n%s\n", title)
	for _, card := range lo.Slice(cards, 0, 10) {
		if card.Rank > 0 {
			c.printf("  %2d. %-40s %s\n", card.Rank, card.Name, card.ID)
			continue
		}
		c.printf("      %-40s %s\n", card.Name, card.ID)
	}
}

func (c *cli) printAnimes(animes []domain.AnimeSummary) error {
	if c.json {
		return c.printJSON(animes)
	}
	if len(animes) == 0 {
		c.printf("(no results)\n")
		return nil
	}
	for _, a := range animes {
		kind := lo.CoalesceOrEmpty(a.Type, "?")
		c.printf("%-45s %-6s %s\n", a.Name, kind, a.ID)
	}
	return nil
}

// parseFilters lit des paires key=value.
func parseFilters(raw []string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", kv)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func newSearchCmd(c *cli) *cobra.Command {
	var (
		filters     []string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFilters(filters)
			if err != nil {
				return err
			}
			ctrl := app.NewSearchController(c.catalogService(), c.cfg.SearchDebounce, c.logger)
			defer ctrl.Close()
			for k, v := range parsed {
				ctrl.SetFilter(k, v)
			}
			if interactive {
				return c.searchInteractive(cmd.Context(), ctrl, strings.Join(args, " "))
			}
			if len(args) == 0 {
				return fmt.Errorf("missing query")
			}
			ctrl.SetQuery(strings.Join(args, " "))
			ctrl.Flush()
			ctrl.Wait()
			st := ctrl.State()
			if st.Phase == app.PhaseError {
				return fmt.Errorf("%s", st.Message)
			}
			return c.printAnimes(st.Results)
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filtre key=value (type, status, genres, sort...)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Lit les requêtes sur l'entrée standard (debounce)")
	return cmd
}

// searchInteractive traite chaque ligne lue comme une frappe: seule la
// requête stable après le debounce part vers le catalogue.
func (c *cli) searchInteractive(ctx context.Context, ctrl *app.SearchController, initial string) error {
	states, cancel := ctrl.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var last app.SearchState
		for st := range states {
			if st.Phase == last.Phase && st.Query == last.Query {
				continue
			}
			last = st
			switch st.Phase {
			case app.PhaseLoading:
				c.printf("… searching %q\n", st.Query)
			case app.PhaseError:
				c.printf("! %s\n", st.Message)
			case app.PhaseSuccess:
				c.printf("= %d results for %q\n", len(st.Results), st.Query)
				_ = c.printAnimes(st.Results)
			}
		}
	}()

	if initial != "" {
		ctrl.SetQuery(initial)
	}
	lines := bufio.NewScanner(os.Stdin)
	for lines.Scan() {
		if ctx.Err() != nil {
			break
		}
		ctrl.SetQuery(lines.Text())
	}
	ctrl.Flush()
	ctrl.Wait()
	// cancel ferme le canal après la dernière valeur en attente.
	cancel()
	<-done
	return lines.Err()
}

func newBrowseCmd(c *cli) *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:       "browse genre|category|az <value>",
		Short:     "List a genre, a category or the A-Z index",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{string(app.BrowseGenre), string(app.BrowseCategory), string(app.BrowseAZ)},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := app.BrowseKey{Kind: app.BrowseKind(args[0])}
			if len(args) == 2 {
				key.Query = args[1]
			}
			if key.Kind == app.BrowseAZ && key.Query == "" {
				key.Query = "all"
			}
			if !key.Valid() {
				return fmt.Errorf("unknown listing %q (genre, category or az)", args[0])
			}
			if key.Query == "" {
				return fmt.Errorf("missing %s name", key.Kind)
			}

			ctrl := app.NewListController(c.catalogService(), c.logger)
			defer ctrl.Close()
			ctrl.Load(key)
			ctrl.Wait()
			for i := 1; i < pages && ctrl.LoadNextPage(); i++ {
				ctrl.Wait()
			}

			st := ctrl.State()
			if c.json {
				return c.printJSON(st)
			}
			c.printf("%s (page %d", st.Title, st.Page)
			if st.HasNext {
				c.printf(", more available")
			}
			c.printf(")\n")
			if err := c.printAnimes(st.Animes); err != nil {
				return err
			}
			if st.Phase == app.PhaseError {
				return fmt.Errorf("%s", st.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Nombre de pages à charger")
	return cmd
}

func newAnimeCmd(c *cli) *cobra.Command {
	var toggle bool
	cmd := &cobra.Command{
		Use:   "anime <id>",
		Short: "Show anime details, episodes and characters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			wl, err := c.watchlistService(ctx)
			if err != nil {
				return err
			}
			ctrl := app.NewDetailsController(c.catalogService(), wl, c.logger)
			defer ctrl.Close()
			ctrl.Load(args[0])
			ctrl.Wait()

			st := ctrl.State()
			if st.Phase != app.PhaseSuccess {
				return fmt.Errorf("%s", st.Message)
			}
			if toggle {
				in, err := ctrl.ToggleWatchlist(ctx)
				if err != nil {
					return err
				}
				st = ctrl.State()
				c.logger.Info().Str("anime", st.AnimeID).Bool("inWatchlist", in).Msg("watchlist toggled")
			}
			if c.json {
				return c.printJSON(st)
			}

			info := st.Details.Info
			c.printf("%s (%s)\n", info.Name, info.ID)
			c.printf("%s · %s · %s\n", info.Stats.Type, info.Stats.Duration, lo.CoalesceOrEmpty(info.Stats.Rating, "?"))
			if g := st.Details.MoreInfo.Genres; len(g) > 0 {
				c.printf("Genres: %s\n", strings.Join(g, ", "))
			}
			if info.Description != "" {
				c.printf("\n%s\n", info.Description)
			}
			c.printf("\nEpisodes: %d", len(st.Episodes))
			if next, ok := st.NextEpisode.Get(); ok {
				c.printf(" · next: %s", next)
			}
			c.printf("\nIn watchlist: %t\n", st.InWatchlist)
			for _, ep := range lo.Slice(st.Episodes, 0, 12) {
				c.printf("  %4d  %-40s %s\n", ep.Number, ep.Title, ep.ID)
			}
			if len(st.Characters) > 0 {
				names := lo.Map(lo.Slice(st.Characters, 0, 8), func(ch domain.CharacterItem, _ int) string { return ch.Name })
				c.printf("Characters: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&toggle, "toggle-watchlist", false, "Ajoute ou retire l'anime de la watchlist")
	return cmd
}

func newStreamCmd(c *cli) *cobra.Command {
	var server, category string
	var next bool
	cmd := &cobra.Command{
		Use:   "stream <episode-id>",
		Short: "Resolve a playable stream URL (with server fallback)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			settings, err := c.settingsService(ctx)
			if err != nil {
				return err
			}
			prefs, err := settings.Get(ctx)
			if err != nil {
				return err
			}
			ctrl := app.NewPlayerController(c.catalogService(), prefs, c.logger)
			defer ctrl.Close()

			if next {
				// Le playlist vient de la liste d'épisodes de l'anime.
				animeID, _, _ := strings.Cut(args[0], "?")
				env, err := c.catalogService().Episodes(ctx, animeID)
				if err == nil && env.OK() {
					ctrl.SetPlaylist(env.Data.Episodes)
				}
			}
			ctrl.LoadStream(args[0], server, category)
			ctrl.Wait()
			if next && ctrl.PlayNext() {
				ctrl.Wait()
			}

			st := ctrl.State()
			if c.json {
				return c.printJSON(st)
			}
			if st.Phase != app.PhaseSuccess {
				return fmt.Errorf("%s", st.Message)
			}
			c.printf("%s [%s/%s]\n%s\n", st.EpisodeID, st.Server, st.Category, st.Stream.URL)
			for _, tr := range st.Stream.Tracks {
				if tr.Kind == "thumbnails" {
					continue
				}
				c.printf("  %-10s %-20s %s\n", tr.Kind, tr.Label, tr.File)
			}
			for k, v := range st.Stream.Headers {
				c.printf("  header %s: %s\n", k, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Serveur (hd-1, hd-2...); défaut: préférences")
	cmd.Flags().StringVar(&category, "category", "", "Catégorie (sub, dub, raw); défaut: préférences")
	cmd.Flags().BoolVar(&next, "next", false, "Résout l'épisode suivant")
	return cmd
}

func newScheduleCmd(c *cli) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "schedule [date]",
		Short: "Show the estimated airing schedule (YYYY-MM-DD, default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := time.Now()
			if len(args) == 1 {
				d, err := time.ParseInLocation(app.DateLayout, args[0], time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", args[0], err)
				}
				date = d
			}
			ctrl := app.NewScheduleController(c.catalogService(), c.logger)
			defer ctrl.Close()

			states := make([]app.ScheduleState, 0, days)
			ctrl.Load(date)
			ctrl.Wait()
			states = append(states, ctrl.State())
			for i := 1; i < days; i++ {
				ctrl.NextDay()
				ctrl.Wait()
				states = append(states, ctrl.State())
			}

			if c.json {
				return c.printJSON(states)
			}
			for _, st := range states {
				c.printf("%s\n", st.Date)
				if st.Phase == app.PhaseError {
					c.printf("  %s\n", st.Message)
					continue
				}
				for _, a := range st.Animes {
					c.printf("  %s  %-40s %s\n", a.Time, a.Name, a.ID)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "Nombre de jours à afficher")
	return cmd
}
