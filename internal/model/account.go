// Package model defines domain entities for the application.
package model

import "time"

// Membership tiers, ordered by lifetime spend.
const (
	TierBronze = "bronze"
	TierSilver = "silver"
	TierGold   = "gold"
)

// Account is a customer profile. It is tied one-to-one to a verified
// external identity through FirebaseUID and is unique by email.
type Account struct {
	ID          string  `json:"id"`
	FirebaseUID *string `json:"firebase_uid,omitempty"`
	Email       string  `json:"email"`

	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	DateOfBirth     *string `json:"date_of_birth"`
	Language        *string `json:"language"`
	ProfilePhotoURL *string `json:"profile_photo_url"`

	Street     *string `json:"street"`
	PostalCode *string `json:"postal_code"`
	City       *string `json:"city"`
	Country    *string `json:"country"`

	FavoriteMeatTypes     []string `json:"favorite_meat_types"`
	PreferredCuts         []string `json:"preferred_cuts"`
	CookingPreference     *string  `json:"cooking_preference"`
	HouseholdSize         *int     `json:"household_size"`
	WeeklyMeatConsumption *string  `json:"weekly_meat_consumption"`
	OrganicOnly           bool     `json:"organic_only"`
	GrassFedPreference    bool     `json:"grass_fed_preference"`
	LocalSourcing         bool     `json:"local_sourcing"`

	CookingSkillLevel *string  `json:"cooking_skill_level"`
	FavoriteCuisines  []string `json:"favorite_cuisines"`
	CookingEquipment  []string `json:"cooking_equipment"`

	DeliveryFrequency    *string `json:"delivery_frequency"`
	PreferredDeliveryDay *string `json:"preferred_delivery_day"`

	EmailNotifications bool `json:"email_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
	Newsletter         bool `json:"newsletter"`
	RecipeEmails       bool `json:"recipe_emails"`

	// Loyalty fields are maintained by the shop, never by the customer.
	LoyaltyPoints      int    `json:"loyalty_points"`
	MembershipTier     string `json:"membership_tier"`
	LifetimeValueCents int64  `json:"lifetime_value_cents"`

	MemberSince time.Time `json:"member_since"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasExternalRef reports whether the account is linked to the given identity.
func (a *Account) HasExternalRef(ref string) bool {
	return a.FirebaseUID != nil && *a.FirebaseUID == ref
}
