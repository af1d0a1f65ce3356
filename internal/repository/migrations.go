// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migration pairs a name with the DDL it applies.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "players",
		sql: `
		CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			ideology INT NOT NULL DEFAULT 0 CHECK (ideology BETWEEN -5 AND 5),
			main_actions_left INT NOT NULL DEFAULT 1,
			quick_actions_left INT NOT NULL DEFAULT 2,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	},
	{
		name: "wallets",
		sql: `
		CREATE TABLE IF NOT EXISTS wallets (
			player_id BIGINT PRIMARY KEY REFERENCES players(id) ON DELETE CASCADE,
			influence BIGINT NOT NULL DEFAULT 0 CHECK (influence >= 0),
			money BIGINT NOT NULL DEFAULT 0 CHECK (money >= 0),
			information BIGINT NOT NULL DEFAULT 0 CHECK (information >= 0),
			force BIGINT NOT NULL DEFAULT 0 CHECK (force >= 0)
		);`,
	},
	{
		name: "resource_history",
		sql: `
		CREATE TABLE IF NOT EXISTS resource_history (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL,
			amount BIGINT NOT NULL,
			reason VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_resource_history_player_time
			ON resource_history(player_id, created_at DESC);`,
	},
	{
		name: "districts",
		sql: `
		CREATE TABLE IF NOT EXISTS districts (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			influence_yield BIGINT NOT NULL DEFAULT 0,
			money_yield BIGINT NOT NULL DEFAULT 0,
			information_yield BIGINT NOT NULL DEFAULT 0,
			force_yield BIGINT NOT NULL DEFAULT 0
		);`,
	},
	{
		name: "district_control",
		sql: `
		CREATE TABLE IF NOT EXISTS district_control (
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			district_id BIGINT NOT NULL REFERENCES districts(id) ON DELETE CASCADE,
			control_points BIGINT NOT NULL DEFAULT 0 CHECK (control_points >= 0),
			last_action_cycle_id BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, district_id)
		);
		CREATE INDEX IF NOT EXISTS idx_district_control_district
			ON district_control(district_id, control_points DESC);`,
	},
	{
		name: "politicians",
		sql: `
		CREATE TABLE IF NOT EXISTS politicians (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			scope VARCHAR(20) NOT NULL CHECK (scope IN ('local', 'international')),
			district_id BIGINT REFERENCES districts(id),
			country VARCHAR(100),
			ideology INT NOT NULL DEFAULT 0 CHECK (ideology BETWEEN -5 AND 5),
			district_influence BIGINT NOT NULL DEFAULT 0
		);`,
	},
	{
		name: "politician_relations",
		sql: `
		CREATE TABLE IF NOT EXISTS politician_relations (
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			politician_id BIGINT NOT NULL REFERENCES politicians(id) ON DELETE CASCADE,
			friendliness INT NOT NULL DEFAULT 50 CHECK (friendliness BETWEEN 0 AND 100),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, politician_id)
		);`,
	},
	{
		name: "cycles",
		sql: `
		CREATE TABLE IF NOT EXISTS cycles (
			id BIGSERIAL PRIMARY KEY,
			type VARCHAR(10) NOT NULL CHECK (type IN ('morning', 'evening')),
			date DATE NOT NULL,
			deadline TIMESTAMPTZ NOT NULL,
			results_time TIMESTAMPTZ NOT NULL,
			is_open BOOLEAN NOT NULL DEFAULT TRUE,
			is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (type, date)
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cycles_single_open
			ON cycles(is_open) WHERE is_open;`,
	},
	{
		name: "actions",
		sql: `
		CREATE TABLE IF NOT EXISTS actions (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			type VARCHAR(50) NOT NULL,
			is_quick BOOLEAN NOT NULL DEFAULT FALSE,
			cycle_id BIGINT NOT NULL REFERENCES cycles(id),
			district_id BIGINT REFERENCES districts(id),
			target_player_id BIGINT REFERENCES players(id),
			target_politician_id BIGINT REFERENCES politicians(id),
			resource_kind VARCHAR(20) NOT NULL DEFAULT 'influence',
			resource_amount BIGINT NOT NULL DEFAULT 0 CHECK (resource_amount >= 0),
			physical_presence BOOLEAN NOT NULL DEFAULT FALSE,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'completed', 'cancelled')),
			outcome TEXT,
			control_delta BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_actions_cycle_status
			ON actions(cycle_id, status, created_at);
		CREATE INDEX IF NOT EXISTS idx_actions_player_cycle
			ON actions(player_id, cycle_id);`,
	},
	{
		name: "collective_actions",
		sql: `
		CREATE TABLE IF NOT EXISTS collective_actions (
			id BIGSERIAL PRIMARY KEY,
			initiator_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			type VARCHAR(10) NOT NULL CHECK (type IN ('attack', 'defense')),
			district_id BIGINT NOT NULL REFERENCES districts(id),
			target_player_id BIGINT REFERENCES players(id),
			cycle_id BIGINT NOT NULL REFERENCES cycles(id),
			status VARCHAR(20) NOT NULL DEFAULT 'active'
				CHECK (status IN ('active', 'completed')),
			outcome TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_collective_actions_status
			ON collective_actions(status, created_at);`,
	},
	{
		name: "collective_participants",
		sql: `
		CREATE TABLE IF NOT EXISTS collective_participants (
			collective_action_id BIGINT NOT NULL REFERENCES collective_actions(id) ON DELETE CASCADE,
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			resource_kind VARCHAR(20) NOT NULL,
			resource_amount BIGINT NOT NULL CHECK (resource_amount >= 0),
			physical_presence BOOLEAN NOT NULL DEFAULT FALSE,
			credited_points BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collective_action_id, player_id)
		);`,
	},
	{
		name: "international_effects",
		sql: `
		CREATE TABLE IF NOT EXISTS international_effects (
			id BIGSERIAL PRIMARY KEY,
			politician_id BIGINT NOT NULL REFERENCES politicians(id),
			type VARCHAR(30) NOT NULL,
			district_id BIGINT REFERENCES districts(id),
			ideology_filter VARCHAR(10) NOT NULL DEFAULT 'any'
				CHECK (ideology_filter IN ('any', 'positive', 'negative')),
			control_delta BIGINT NOT NULL DEFAULT 0,
			resource_kind VARCHAR(20),
			resource_delta BIGINT NOT NULL DEFAULT 0,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_international_effects_expiry
			ON international_effects(expires_at);`,
	},
	{
		name: "game_events",
		sql: `
		CREATE TABLE IF NOT EXISTS game_events (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT REFERENCES players(id) ON DELETE CASCADE,
			cycle_id BIGINT NOT NULL,
			kind VARCHAR(50) NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_events_player_time
			ON game_events(player_id, created_at DESC);`,
	},
	{
		name: "trade_offers",
		sql: `
		CREATE TABLE IF NOT EXISTS trade_offers (
			id BIGSERIAL PRIMARY KEY,
			seller_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			buyer_id BIGINT REFERENCES players(id),
			offered_kind VARCHAR(20) NOT NULL,
			offered_qty BIGINT NOT NULL CHECK (offered_qty > 0),
			wanted_kind VARCHAR(20) NOT NULL,
			wanted_qty BIGINT NOT NULL CHECK (wanted_qty > 0),
			status VARCHAR(20) NOT NULL DEFAULT 'open'
				CHECK (status IN ('open', 'accepted', 'cancelled')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_trade_offers_status
			ON trade_offers(status, created_at DESC);`,
	},
}

// Migrate applies the database schema. Every statement is idempotent so
// the engine can run it on each startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		log.Debug().Str("migration", m.name).Msg("Migration applied")
	}
	log.Info().Int("count", len(migrations)).Msg("All migrations completed")
	return nil
}
