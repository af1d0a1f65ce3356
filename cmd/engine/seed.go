package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"political-game-engine/internal/model"
	"political-game-engine/internal/repository"
)

// seedWorld inserts the reference districts and politicians on first
// start. A world with districts already present is left untouched.
func seedWorld(ctx context.Context, districts *repository.DistrictRepository, politicians *repository.PoliticianRepository) error {
	existing, err := districts.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing districts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	seedDistricts := []model.District{
		{Name: "Central", InfluenceYield: 10, MoneyYield: 8, InformationYield: 4, ForceYield: 2},
		{Name: "Industrial", InfluenceYield: 4, MoneyYield: 12, InformationYield: 2, ForceYield: 6},
		{Name: "Harbor", InfluenceYield: 6, MoneyYield: 10, InformationYield: 4, ForceYield: 4},
		{Name: "University", InfluenceYield: 8, MoneyYield: 4, InformationYield: 12, ForceYield: 1},
		{Name: "Suburbs", InfluenceYield: 6, MoneyYield: 6, InformationYield: 3, ForceYield: 8},
	}

	ids := make(map[string]int64, len(seedDistricts))
	for i := range seedDistricts {
		d, err := districts.Seed(ctx, &seedDistricts[i])
		if err != nil {
			return fmt.Errorf("failed to seed district %s: %w", seedDistricts[i].Name, err)
		}
		ids[d.Name] = d.ID
	}

	central := ids["Central"]
	industrial := ids["Industrial"]
	university := ids["University"]
	usa := "USA"
	germany := "Germany"
	china := "China"

	seedPoliticians := []model.Politician{
		{Name: "Mayor Orlov", Scope: model.PoliticianLocal, DistrictID: &central, Ideology: 1, DistrictInfluence: 40},
		{Name: "Union Chief Basov", Scope: model.PoliticianLocal, DistrictID: &industrial, Ideology: -2, DistrictInfluence: 35},
		{Name: "Rector Vetrova", Scope: model.PoliticianLocal, DistrictID: &university, Ideology: 3, DistrictInfluence: 30},
		{Name: "Senator Hale", Scope: model.PoliticianInternational, Country: &usa, Ideology: 3},
		{Name: "Chancellor Weiss", Scope: model.PoliticianInternational, Country: &germany, Ideology: 1},
		{Name: "Minister Zhao", Scope: model.PoliticianInternational, Country: &china, Ideology: -3},
	}
	for i := range seedPoliticians {
		if _, err := politicians.Seed(ctx, &seedPoliticians[i]); err != nil {
			return fmt.Errorf("failed to seed politician %s: %w", seedPoliticians[i].Name, err)
		}
	}

	log.Info().
		Int("districts", len(seedDistricts)).
		Int("politicians", len(seedPoliticians)).
		Msg("World data seeded")

	return nil
}
