package model

import "time"

// Dependent is a household member owned by exactly one Account.
type Dependent struct {
	ID                  string    `json:"id"`
	CustomerID          string    `json:"customer_id"`
	Name                string    `json:"name"`
	Relationship        *string   `json:"relationship"`
	Gender              *string   `json:"gender"`
	Age                 *int      `json:"age"`
	DietaryRequirements []string  `json:"dietary_requirements"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Subscription status values.
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// SubscriptionStatuses lists every valid status.
var SubscriptionStatuses = []string{SubscriptionActive, SubscriptionPaused, SubscriptionCancelled}

// Delivery cadences offered for subscription boxes.
var DeliveryFrequencies = []string{"weekly", "bi-weekly", "monthly"}

// DeliveryDays lists the days a box can be delivered.
var DeliveryDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Subscription is a recurring box owned by exactly one Account.
type Subscription struct {
	ID                   string    `json:"id"`
	CustomerID           string    `json:"customer_id"`
	PlanID               string    `json:"plan_id"`
	PlanName             string    `json:"plan_name"`
	Frequency            string    `json:"frequency"`
	PreferredDeliveryDay *string   `json:"preferred_delivery_day"`
	Status               string    `json:"status"`
	NextDeliveryDate     *string   `json:"next_delivery_date"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Order is a past purchase. Orders are read-only for customers.
type Order struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	OrderNumber string    `json:"order_number"`
	OrderDate   time.Time `json:"order_date"`
	Status      string    `json:"status"`
	ItemCount   int       `json:"item_count"`
	TotalCents  int64     `json:"total_cents"`
}
