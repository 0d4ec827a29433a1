package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/himnario/pkg/catalog"
	"github.com/hazyhaar/himnario/pkg/hymn"
	"github.com/hazyhaar/himnario/pkg/kit"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		query string
		rank  bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hymns, optionally filtered by title",
		Long:  "List hymns sorted by title. Example:\n  himnario list --query senor --rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := kit.WithTransport(cmd.Context(), "cli")
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				results, err := a.catalog.Search(ctx, query, catalog.SearchOptions{RankByScore: rank, Limit: limit})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range results {
					fmt.Fprintf(out, "%-8s %s\n", r.Entry.ID, r.Entry.Title)
				}
				if len(results) == 0 && strings.TrimSpace(query) != "" {
					return printSuggestions(ctx, out, a.catalog, query)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "only titles containing this text (case and accents ignored)")
	cmd.Flags().BoolVar(&rank, "rank", false, "order by match quality instead of alphabetically")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of hymns (0 for all)")
	return cmd
}

func printSuggestions(ctx context.Context, out io.Writer, cat *catalog.Catalog, query string) error {
	suggestions, err := cat.Suggest(ctx, query, catalog.DefaultSuggestions)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Fprintf(out, "no hymns match %q\n", query)
		return nil
	}
	fmt.Fprintf(out, "no hymns match %q; did you mean:\n", query)
	for _, e := range suggestions {
		fmt.Fprintf(out, "  %-8s %s\n", e.ID, e.Title)
	}
	return nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the lyrics of one hymn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := kit.WithTransport(cmd.Context(), "cli")
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				h, err := a.catalog.Get(ctx, args[0])
				if err != nil {
					return err
				}
				printHymn(cmd.OutOrStdout(), h, raw)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the content as stored, without section formatting")
	return cmd
}

func printHymn(out io.Writer, h *hymn.Hymn, raw bool) {
	fmt.Fprintln(out, h.Title)
	if h.Author != "" {
		fmt.Fprintln(out, h.Author)
	}
	fmt.Fprintln(out)

	sections := hymn.ParseContent(h.Content)
	if raw || !sections.Valid() {
		fmt.Fprintln(out, strings.TrimRight(h.Content, "\n"))
		return
	}
	for i, v := range sections.Verses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d.\n", v.Number)
		printLines(out, v.Lines)
		// Chorus once, after the first verse.
		if i == 0 && sections.Chorus != nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Coro:")
			printLines(out, sections.Chorus.Lines)
		}
	}
	if len(sections.Verses) == 0 && sections.Chorus != nil {
		fmt.Fprintln(out, "Coro:")
		printLines(out, sections.Chorus.Lines)
	}
}

func printLines(out io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(out, "   %s\n", strings.TrimSpace(l))
	}
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest titles for an approximate query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := kit.WithTransport(cmd.Context(), "cli")
			return withApp(ctx, opts, func(ctx context.Context, a *app) error {
				entries, err := a.catalog.Suggest(ctx, strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", e.ID, e.Title)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultSuggestions, "maximum number of suggestions")
	return cmd
}
