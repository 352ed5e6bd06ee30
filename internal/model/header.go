package model

// Reward is a loyalty reward that can be redeemed with points.
type Reward struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	PointsRequired int     `json:"points_required"`
	Icon           *string `json:"icon"`
}

// Tip is a short cooking or sourcing tip shown in the header.
type Tip struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
	TipType string `json:"tip_type"`
	Icon    string `json:"icon"`
}

// DefaultTip is shown when no tip is active.
var DefaultTip = Tip{
	Title:   "Welcome!",
	Content: "Check back soon for tips and recommendations",
	TipType: "general",
	Icon:    "info",
}

// Event is an in-store or online event.
type Event struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	EventDate   *string `json:"event_date"`
	EventType   string  `json:"event_type"`
	Icon        string  `json:"icon"`
}

// DefaultEvent is shown when nothing is scheduled.
var DefaultEvent = Event{
	Title:       "No upcoming events",
	Description: "Stay tuned for future events",
	EventType:   "general",
	Icon:        "calendar",
}

// SustainabilityImpact summarizes the environmental effect of a customer's purchases.
type SustainabilityImpact struct {
	CO2SavedKg              float64 `json:"co2_saved_kg"`
	LocalSourcingPercentage float64 `json:"local_sourcing_percentage"`
	PartnerFarmsCount       int     `json:"partner_farms_count"`
	SustainabilityScore     int     `json:"sustainability_score"`
}
