package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"biteme-be/internal/catalog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Restaurants []seedRestaurant `yaml:"restaurants"`
}

type seedRestaurant struct {
	Name        string         `yaml:"name"`
	CuisineType string         `yaml:"cuisine_type"`
	Rating      float64        `yaml:"rating"`
	Address     string         `yaml:"address"`
	Description string         `yaml:"description"`
	Menu        []seedMenuItem `yaml:"menu"`
}

type seedMenuItem struct {
	Name           string  `yaml:"name"`
	Description    string  `yaml:"description"`
	Price          float64 `yaml:"price"`
	Category       string  `yaml:"category"`
	SpicinessLevel *int    `yaml:"spiciness_level"`
	IsVegetarian   bool    `yaml:"is_vegetarian"`
	Available      *bool   `yaml:"available"`
	ImageURL       *string `yaml:"image_url"`
}

type seedReport struct {
	created, skipped, items int
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(f.Restaurants) == 0 {
		return nil, fmt.Errorf("%s lists no restaurants", path)
	}
	return &f, nil
}

func newSeedCmd(open backendFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load restaurants and menus from a YAML file",
		Long:  "Create every restaurant in the file together with its menu. Restaurants that already exist by name only get the menu items they are missing, so an interrupted run can be repeated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadSeedFile(file)
			if err != nil {
				return err
			}

			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				rep, err := seedCatalog(ctx, b.Catalog, f, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d restaurants (%d skipped), %d menu items\n",
					rep.created, rep.skipped, rep.items)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "Seed file to load")
	return cmd
}

func seedCatalog(ctx context.Context, svc catalog.Service, f *seedFile, out io.Writer) (seedReport, error) {
	var rep seedReport

	for _, sr := range f.Restaurants {
		r, err := svc.CreateRestaurant(ctx, catalog.RestaurantInput{
			Name:        sr.Name,
			CuisineType: catalog.FoodCategory(sr.CuisineType),
			Rating:      sr.Rating,
			Address:     sr.Address,
			Description: sr.Description,
		})
		existing := errors.Is(err, catalog.ErrRestaurantExists)
		if existing {
			r, err = findRestaurant(ctx, svc, sr.Name)
		}
		if err != nil {
			return rep, fmt.Errorf("restaurant %q: %w", sr.Name, err)
		}

		added, err := seedMenu(ctx, svc, r, sr.Menu)
		rep.items += added
		if err != nil {
			return rep, fmt.Errorf("menu item of %q: %w", sr.Name, err)
		}

		switch {
		case !existing:
			rep.created++
			fmt.Fprintf(out, "created %q with %d menu items\n", r.Name, added)
		case added == 0:
			rep.skipped++
			fmt.Fprintf(out, "skip %q: already exists\n", r.Name)
		default:
			rep.skipped++
			fmt.Fprintf(out, "completed %q with %d missing menu items\n", r.Name, added)
		}
	}
	return rep, nil
}

// findRestaurant resolves a restaurant left behind by an earlier run.
func findRestaurant(ctx context.Context, svc catalog.Service, name string) (*catalog.Restaurant, error) {
	all, err := svc.ListRestaurants(ctx, catalog.ListFilter{})
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for _, r := range all {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, catalog.ErrRestaurantNotFound
}

// seedMenu adds the items r does not carry yet, so a run that stopped
// halfway through a menu can be resumed.
func seedMenu(ctx context.Context, svc catalog.Service, r *catalog.Restaurant, menu []seedMenuItem) (int, error) {
	added := 0
	for _, mi := range menu {
		if _, ok := r.MenuItemByName(strings.TrimSpace(mi.Name)); ok {
			continue
		}
		_, err := svc.AddMenuItem(ctx, r.ID, catalog.MenuItemInput{
			Name:           mi.Name,
			Description:    mi.Description,
			Price:          mi.Price,
			Category:       catalog.FoodCategory(mi.Category),
			SpicinessLevel: mi.SpicinessLevel,
			IsVegetarian:   mi.IsVegetarian,
			Available:      mi.Available,
			ImageURL:       mi.ImageURL,
		})
		if errors.Is(err, catalog.ErrMenuItemExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("%q: %w", mi.Name, err)
		}
		added++
	}
	return added, nil
}
