package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func (a *app) boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Manage discussion boards",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra only runs the nearest PersistentPreRunE
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.cfg.ValidateDatabase()
		},
	}
	cmd.AddCommand(a.boardAddCmd(), a.boardListCmd(), a.boardDeleteCmd())
	return cmd
}

func (a *app) boardAddCmd() *cobra.Command {
	var name, description string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return errors.New("--name is required")
			}
			if len([]rune(name)) > 100 {
				return errors.New("board name must be at most 100 characters")
			}
			if len([]rune(description)) > 200 {
				return errors.New("board description must be at most 200 characters")
			}
			return a.withBoards(cmd.Context(), func(ctx context.Context, boards *db.BoardRepository) error {
				board := &models.Board{
					ID:          uuid.New(),
					Name:        name,
					Description: description,
					CreatedAt:   time.Now().UTC(),
				}
				if err := boards.Create(ctx, board); err != nil {
					if errors.Is(err, db.ErrDuplicateBoardName) {
						return fmt.Errorf("board %q already exists", name)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created board %s (%s)\n", board.Name, board.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "unique board name")
	cmd.Flags().StringVar(&description, "description", "", "short description shown on the home page")
	return cmd
}

func (a *app) boardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boards with their topic and post counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBoards(cmd.Context(), func(ctx context.Context, boards *db.BoardRepository) error {
				list, err := boards.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tTOPICS\tPOSTS\tDESCRIPTION")
				for _, b := range list {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", b.Name, b.TopicsCount, b.PostsCount, b.Description)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) boardDeleteCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a board together with its topics and posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return errors.New("--name is required")
			}
			return a.withBoards(cmd.Context(), func(ctx context.Context, boards *db.BoardRepository) error {
				board, err := boards.GetByName(ctx, name)
				if errors.Is(err, db.ErrNotFound) {
					return fmt.Errorf("board %q does not exist", name)
				}
				if err != nil {
					return err
				}
				if err := boards.Delete(ctx, board.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted board %s\n", board.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name of the board to delete")
	return cmd
}

func (a *app) withBoards(ctx context.Context, fn func(context.Context, *db.BoardRepository) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dbConn, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	return fn(ctx, db.NewBoardRepository(dbConn))
}
