package repository

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/premiumbutcher/profile-api/internal/model"
)

// ListAvailableRewards returns up to limit available rewards, cheapest first.
func (r *Repository) ListAvailableRewards(ctx context.Context, limit int) ([]*model.Reward, error) {
	query := `
		SELECT id, name, description, points_required, icon
		FROM loyalty_rewards
		WHERE is_available = TRUE
		ORDER BY points_required ASC, id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	rewards := []*model.Reward{}
	for rows.Next() {
		var rw model.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.PointsRequired, &rw.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, &rw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewards: %w", err)
	}

	return rewards, nil
}

// RandomActiveTip returns one active tip, or ErrNotFound when none is active.
func (r *Repository) RandomActiveTip(ctx context.Context) (*model.Tip, error) {
	query := `
		SELECT id, title, content, tip_type, icon
		FROM tips
		WHERE is_active = TRUE
		ORDER BY RANDOM()
		LIMIT 1
	`

	var tip model.Tip
	err := r.pool.QueryRow(ctx, query).Scan(&tip.ID, &tip.Title, &tip.Content, &tip.TipType, &tip.Icon)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tip: %w", err)
	}

	return &tip, nil
}

// NextActiveEvent returns the earliest active event from today on.
func (r *Repository) NextActiveEvent(ctx context.Context) (*model.Event, error) {
	query := `
		SELECT id, title, description, event_date::text, event_type, icon
		FROM events
		WHERE is_active = TRUE AND event_date >= CURRENT_DATE
		ORDER BY event_date ASC, id
		LIMIT 1
	`

	var ev model.Event
	err := r.pool.QueryRow(ctx, query).Scan(&ev.ID, &ev.Title, &ev.Description, &ev.EventDate, &ev.EventType, &ev.Icon)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get next event: %w", err)
	}

	return &ev, nil
}

// GetSustainabilityImpact returns the account's impact figures.
func (r *Repository) GetSustainabilityImpact(ctx context.Context, accountID string) (*model.SustainabilityImpact, error) {
	query := `
		SELECT co2_saved_kg, local_sourcing_percentage, partner_farms_count, sustainability_score
		FROM sustainability_impact
		WHERE customer_id = $1
	`

	var s model.SustainabilityImpact
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&s.CO2SavedKg, &s.LocalSourcingPercentage, &s.PartnerFarmsCount, &s.SustainabilityScore,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sustainability impact: %w", err)
	}

	return &s, nil
}

// UpsertSustainabilityImpact stores the account's impact figures.
func (r *Repository) UpsertSustainabilityImpact(ctx context.Context, accountID string, s *model.SustainabilityImpact) error {
	query := `
		INSERT INTO sustainability_impact (customer_id, co2_saved_kg, local_sourcing_percentage, partner_farms_count, sustainability_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (customer_id) DO UPDATE SET
			co2_saved_kg = EXCLUDED.co2_saved_kg,
			local_sourcing_percentage = EXCLUDED.local_sourcing_percentage,
			partner_farms_count = EXCLUDED.partner_farms_count,
			sustainability_score = EXCLUDED.sustainability_score
	`
	_, err := r.pool.Exec(ctx, query, accountID, s.CO2SavedKg, s.LocalSourcingPercentage, s.PartnerFarmsCount, s.SustainabilityScore)
	if err != nil {
		return fmt.Errorf("failed to upsert sustainability impact: %w", err)
	}
	return nil
}

// CreateReward adds a reward to the catalog.
func (r *Repository) CreateReward(ctx context.Context, rw *model.Reward) error {
	if rw.ID == "" {
		rw.ID = ulid.Make().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO loyalty_rewards (id, name, description, points_required, icon)
		VALUES ($1, $2, $3, $4, $5)
	`, rw.ID, rw.Name, rw.Description, rw.PointsRequired, rw.Icon)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}

// CreateTip adds an active tip.
func (r *Repository) CreateTip(ctx context.Context, tip *model.Tip) error {
	if tip.ID == "" {
		tip.ID = ulid.Make().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tips (id, title, content, tip_type, icon)
		VALUES ($1, $2, $3, $4, $5)
	`, tip.ID, tip.Title, tip.Content, tip.TipType, tip.Icon)
	if err != nil {
		return fmt.Errorf("failed to create tip: %w", err)
	}
	return nil
}

// CreateEvent adds an active event. EventDate must be set.
func (r *Repository) CreateEvent(ctx context.Context, ev *model.Event) error {
	if ev.ID == "" {
		ev.ID = ulid.Make().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, title, description, event_date, event_type, icon)
		VALUES ($1, $2, $3, $4::date, $5, $6)
	`, ev.ID, ev.Title, ev.Description, ev.EventDate, ev.EventType, ev.Icon)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}
