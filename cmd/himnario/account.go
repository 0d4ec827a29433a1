package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/himnario/pkg/session"
	"github.com/hazyhaar/himnario/pkg/source/rest"
)

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var title, file, author, writtenAt string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a hymn on the REST backend",
		Long: "Create a hymn on the REST backend with the stored token. The lyrics file uses\n" +
			"\"VERSO n:\" and \"CORO:\" marker lines. Example:\n" +
			"  himnario create --title \"Sublime Gracia\" --file sublime.txt",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := readContent(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				if a.rest == nil {
					return fmt.Errorf("create needs source.kind rest, configured source is %q", a.cfg.Source.Kind)
				}
				user, err := a.session.User(ctx)
				if err != nil {
					return err
				}
				if user == nil {
					return errors.New("no signed-in user; run: himnario token set <token> --email <email> --name <name>")
				}
				err = a.rest.Create(ctx,
					rest.NewHymn{Title: title, Content: content, Author: author, WrittenAt: writtenAt},
					rest.Submitter{Email: user.Email, Name: user.Name},
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %q\n", title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "hymn title")
	cmd.Flags().StringVarP(&file, "file", "f", "", "lyrics file, - for stdin")
	cmd.Flags().StringVar(&author, "author", "", "author")
	cmd.Flags().StringVar(&writtenAt, "written-at", "", "date the hymn was written")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readContent(stdin io.Reader, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read lyrics: %w", err)
	}
	return string(data), nil
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the REST backend credentials",
	}

	var email, name, role string
	set := &cobra.Command{
		Use:   "set <token>",
		Short: "Store a bearer token and, optionally, the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				if err := a.session.SetToken(ctx, args[0]); err != nil {
					return err
				}
				if email != "" {
					u := session.User{Email: email, Name: name, Role: session.Role(role)}
					if err := a.session.SetUser(ctx, u); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "token stored")
				return nil
			})
		},
	}
	set.Flags().StringVar(&email, "email", "", "user email")
	set.Flags().StringVar(&name, "name", "", "user name")
	set.Flags().StringVar(&role, "role", string(session.RoleEditor), "user role (admin, editor, viewer)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored token and user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				if err := a.session.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "credentials cleared")
				return nil
			})
		},
	}

	cmd.AddCommand(set, clearCmd)
	return cmd
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the durable cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached entry under the cache prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				n, err := a.clearCache(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached entries\n", n)
				return nil
			})
		},
	})
	return cmd
}
