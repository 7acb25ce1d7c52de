package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pet-adoption/internal/domain/reference"
)

type seedBreed struct {
	species string
	breed   string
}

var starterBreeds = []seedBreed{
	{"Dog", "Labrador Retriever"},
	{"Dog", "German Shepherd"},
	{"Dog", "Beagle"},
	{"Dog", "Mixed"},
	{"Cat", "Siamese"},
	{"Cat", "Persian"},
	{"Cat", "Domestic Shorthair"},
}

const (
	starterShelter     = "Main Shelter"
	starterShelterCity = "Springfield"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert starter species, breeds and a shelter",
		Long: `Insert the starter reference catalog when it is missing.
Existing rows (matched by name, case-insensitive) are left untouched.

Examples:
  adoptctl seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			return seed(cmd.Context(), cmd, reference.NewService(store.Reference()))
		},
	}
}

func seed(ctx context.Context, cmd *cobra.Command, svc *reference.Service) error {
	out := cmd.OutOrStdout()

	before, err := svc.ListBreeds(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(before))
	for _, b := range before {
		known[b.ID] = true
	}

	for _, sb := range starterBreeds {
		id, err := svc.EnsureBreed(ctx, sb.species, sb.breed)
		if err != nil {
			return fmt.Errorf("seed breed %s/%s: %w", sb.species, sb.breed, err)
		}
		mark := okMark
		if known[id] {
			mark = skipMark
		}
		fmt.Fprintf(out, "%s breed %s / %s\n", mark, sb.species, sb.breed)
	}

	shelters, err := svc.ListShelters(ctx)
	if err != nil {
		return err
	}
	id, err := svc.EnsureShelter(ctx, starterShelter, starterShelterCity)
	if err != nil {
		return fmt.Errorf("seed shelter: %w", err)
	}
	mark := okMark
	for _, sh := range shelters {
		if sh.ID == id {
			mark = skipMark
		}
	}
	fmt.Fprintf(out, "%s shelter %s (%s)\n", mark, starterShelter, starterShelterCity)
	return nil
}
