package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/premiumbutcher/profile-api/internal/repository"
)

// catalog is the seed file format. Missing sections fall back to the
// built-in demo content.
type catalog struct {
	Rewards []*model.Reward `json:"rewards"`
	Tips    []*model.Tip    `json:"tips"`
	Events  []*model.Event  `json:"events"`
}

type output struct {
	Rewards   []string `json:"rewards"`
	Tips      []string `json:"tips"`
	Events    []string `json:"events"`
	AccountID string   `json:"account_id,omitempty"`
	Orders    []string `json:"orders,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		file        = flag.String("file", "", "JSON catalog file (default: built-in demo catalog)")
		email       = flag.String("account-email", "", "Also seed demo orders, a subscription and impact figures for this account")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	c, err := loadCatalog(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	out, err := seedCatalog(ctx, repo, c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if *email != "" {
		accountID, orders, err := seedAccount(ctx, repo, *email)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		out.AccountID = accountID
		out.Orders = orders
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("rewards=%d tips=%d events=%d", len(out.Rewards), len(out.Tips), len(out.Events))
		if out.AccountID != "" {
			fmt.Printf(" account=%s orders=%d", out.AccountID, len(out.Orders))
		}
		fmt.Println()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog, error) {
	c := &catalog{}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if err := json.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	}

	demo := demoCatalog()
	if len(c.Rewards) == 0 {
		c.Rewards = demo.Rewards
	}
	if len(c.Tips) == 0 {
		c.Tips = demo.Tips
	}
	if len(c.Events) == 0 {
		c.Events = demo.Events
	}

	for _, ev := range c.Events {
		if ev.EventDate == nil {
			return nil, fmt.Errorf("event %q has no event_date", ev.Title)
		}
	}
	return c, nil
}

func seedCatalog(ctx context.Context, repo *repository.Repository, c *catalog) (*output, error) {
	out := &output{}
	for _, rw := range c.Rewards {
		if err := repo.CreateReward(ctx, rw); err != nil {
			return nil, err
		}
		out.Rewards = append(out.Rewards, rw.ID)
	}
	for _, tip := range c.Tips {
		if err := repo.CreateTip(ctx, tip); err != nil {
			return nil, err
		}
		out.Tips = append(out.Tips, tip.ID)
	}
	for _, ev := range c.Events {
		if err := repo.CreateEvent(ctx, ev); err != nil {
			return nil, err
		}
		out.Events = append(out.Events, ev.ID)
	}
	return out, nil
}

// seedAccount attaches demo shop data to an existing account. Accounts are
// only ever created by signing in.
func seedAccount(ctx context.Context, repo *repository.Repository, email string) (string, []string, error) {
	account, err := repo.GetAccountByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("no account for %s; sign in once first", email)
	}
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	var orders []string
	for i, total := range []int64{4599, 7250, 2899} {
		o := &model.Order{
			ID:          ulid.Make().String(),
			CustomerID:  account.ID,
			OrderNumber: fmt.Sprintf("PB-%s-%d", now.Format("20060102"), i+1),
			OrderDate:   now.AddDate(0, 0, -7*(i+1)),
			Status:      "delivered",
			ItemCount:   3 + i,
			TotalCents:  total,
		}
		if err := repo.CreateOrder(ctx, o); err != nil {
			return "", nil, err
		}
		orders = append(orders, o.ID)
	}

	day := "friday"
	next := now.AddDate(0, 0, 7).Format(time.DateOnly)
	if _, err := repo.CreateSubscription(ctx, account.ID, repository.NewSubscription{
		PlanID:               "family-box",
		PlanName:             "Family Box",
		Frequency:            "weekly",
		PreferredDeliveryDay: &day,
		NextDeliveryDate:     &next,
	}, now); err != nil {
		return "", nil, err
	}

	impact := &model.SustainabilityImpact{
		CO2SavedKg:              12.4,
		LocalSourcingPercentage: 85,
		PartnerFarmsCount:       4,
		SustainabilityScore:     78,
	}
	if err := repo.UpsertSustainabilityImpact(ctx, account.ID, impact); err != nil {
		return "", nil, err
	}

	return account.ID, orders, nil
}

func demoCatalog() *catalog {
	str := func(s string) *string { return &s }
	inDays := func(n int) *string {
		d := time.Now().UTC().AddDate(0, 0, n).Format(time.DateOnly)
		return &d
	}

	return &catalog{
		Rewards: []*model.Reward{
			{Name: "Free sausages", Description: str("A pack of house sausages"), PointsRequired: 100, Icon: str("gift")},
			{Name: "10% off steaks", Description: str("One order of dry-aged steaks"), PointsRequired: 250, Icon: str("percent")},
			{Name: "Butchery class", Description: str("A seat at a Saturday class"), PointsRequired: 1000, Icon: str("knife")},
		},
		Tips: []*model.Tip{
			{Title: "Rest your steak", Content: "Let it rest for five minutes before slicing", TipType: "cooking", Icon: "clock"},
			{Title: "Cut against the grain", Content: "Shorter fibres make flank and skirt tender", TipType: "cooking", Icon: "knife"},
			{Title: "Ask about the farm", Content: "Every cut at the counter is traceable to its farm", TipType: "sourcing", Icon: "leaf"},
		},
		Events: []*model.Event{
			{Title: "BBQ masterclass", Description: "Fire, smoke and brisket", EventDate: inDays(14), EventType: "workshop", Icon: "flame"},
			{Title: "Farm open day", Description: "Meet our partner farmers", EventDate: inDays(30), EventType: "visit", Icon: "tractor"},
		},
	}
}
