package repository

import (
	"strings"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/patch"
)

// Limits applied to caller-written values.
const (
	maxShortText = 100
	maxURLLength = 2048
	maxTagCount  = 20
	maxTagLength = 50
)

var accountReturning = []string{
	"id", "firebase_uid", "email",
	"name", "phone", "date_of_birth::text", "language", "profile_photo_url",
	"street", "postal_code", "city", "country",
	"favorite_meat_types", "preferred_cuts", "cooking_preference", "household_size",
	"weekly_meat_consumption", "organic_only", "grass_fed_preference", "local_sourcing",
	"cooking_skill_level", "favorite_cuisines", "cooking_equipment",
	"delivery_frequency", "preferred_delivery_day",
	"email_notifications", "sms_notifications", "newsletter", "recipe_emails",
	"loyalty_points", "membership_tier", "lifetime_value_cents",
	"member_since", "created_at", "updated_at",
}

var dependentReturning = []string{
	"id", "customer_id", "name", "relationship", "gender", "age",
	"dietary_requirements", "created_at", "updated_at",
}

var subscriptionReturning = []string{
	"id", "customer_id", "plan_id", "plan_name", "frequency", "preferred_delivery_day",
	"status", "next_delivery_date::text", "created_at", "updated_at",
}

var (
	accountColumns      = strings.Join(accountReturning, ", ")
	dependentColumns    = strings.Join(dependentReturning, ", ")
	subscriptionColumns = strings.Join(subscriptionReturning, ", ")
)

// AccountSchema is the update contract of a customer profile. Loyalty
// columns are maintained by the shop and never writable by the customer.
var AccountSchema = patch.MustSchema(patch.Schema{
	Table:     "customers",
	Key:       "id",
	Owner:     "id",
	Modified:  "updated_at",
	Protected: []string{"loyalty_points", "membership_tier", "lifetime_value_cents"},
	Columns: []patch.Column{
		patch.Text("email", 254).Required(),
		patch.Text("name", maxShortText),
		patch.Text("phone", 32),
		patch.Date("date_of_birth"),
		patch.Text("language", 16),
		patch.Text("profile_photo_url", maxURLLength),

		patch.Text("street", maxShortText*2),
		patch.Text("postal_code", 16),
		patch.Text("city", maxShortText),
		patch.Text("country", maxShortText),

		patch.TextArray("favorite_meat_types", maxTagCount, maxTagLength),
		patch.TextArray("preferred_cuts", maxTagCount, maxTagLength),
		patch.Text("cooking_preference", maxTagLength),
		patch.Integer("household_size", 1, 20),
		patch.Text("weekly_meat_consumption", maxTagLength),
		patch.Boolean("organic_only").Required(),
		patch.Boolean("grass_fed_preference").Required(),
		patch.Boolean("local_sourcing").Required(),

		patch.Text("cooking_skill_level", maxTagLength),
		patch.TextArray("favorite_cuisines", maxTagCount, maxTagLength),
		patch.TextArray("cooking_equipment", maxTagCount, maxTagLength),

		patch.Enum("delivery_frequency", model.DeliveryFrequencies...),
		patch.Enum("preferred_delivery_day", model.DeliveryDays...),

		patch.Boolean("email_notifications").Required(),
		patch.Boolean("sms_notifications").Required(),
		patch.Boolean("newsletter").Required(),
		patch.Boolean("recipe_emails").Required(),
	},
	Returning: accountReturning,
})

// DependentSchema is the update contract of a household member.
var DependentSchema = patch.MustSchema(patch.Schema{
	Table:    "family_members",
	Key:      "id",
	Owner:    "customer_id",
	Modified: "updated_at",
	Columns: []patch.Column{
		patch.Text("name", maxShortText).Required(),
		patch.Text("relationship", maxTagLength),
		patch.Text("gender", maxTagLength),
		patch.Integer("age", 0, 130),
		patch.TextArray("dietary_requirements", maxTagCount, maxTagLength),
	},
	Returning: dependentReturning,
})

// SubscriptionSchema is the update contract of a subscription box. Plan
// name and next delivery date are set by the shop.
var SubscriptionSchema = patch.MustSchema(patch.Schema{
	Table:     "subscriptions",
	Key:       "id",
	Owner:     "customer_id",
	Modified:  "updated_at",
	Protected: []string{"plan_name", "next_delivery_date"},
	Columns: []patch.Column{
		patch.Text("plan_id", maxShortText).Required(),
		patch.Enum("frequency", model.DeliveryFrequencies...).Required(),
		patch.Enum("preferred_delivery_day", model.DeliveryDays...),
		patch.Enum("status", model.SubscriptionStatuses...).Required(),
	},
	Returning: subscriptionReturning,
})
