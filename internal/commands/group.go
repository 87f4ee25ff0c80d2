package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func newGroupCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Seed groups for local use",
	}

	var members []string
	create := &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a group with its roster",
		Example: "  splitledger group create Trip --member alice=Alice --member bob=Bob",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := parseMembers(members)
			if err != nil {
				return err
			}

			cfg, err := g.load()
			if err != nil {
				return err
			}
			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer store.Close()

			group := &models.Group{Name: args[0], Members: roster}
			if err := store.CreateGroup(cmd.Context(), group); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), group.ID)
			return nil
		},
	}
	create.Flags().StringArrayVar(&members, "member", nil, "member as id=name (repeatable)")
	_ = create.MarkFlagRequired("member")

	cmd.AddCommand(create)
	return cmd
}

// parseMembers reads id=name pairs. A bare name gets a generated ID.
func parseMembers(specs []string) ([]models.Member, error) {
	roster := make([]models.Member, 0, len(specs))
	for _, s := range specs {
		id, name, ok := strings.Cut(s, "=")
		if !ok {
			id, name = "", s
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid member %q: name is required", s)
		}
		roster = append(roster, models.Member{ID: strings.TrimSpace(id), Name: name})
	}
	return roster, nil
}
