package service

import (
	"context"
	"testing"
)

func TestSettingsDefaultsBeforeFirstSave(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.settings.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TaxRate != "0" || got.ExpenseRate != "0" || got.AllowNegativeStock {
		t.Fatalf("defaults: %+v", got)
	}
}

func TestUpdateSettingsUpserts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.settings.UpdateSettings(ctx, env.userID, UpdateSettingsRequest{
		TaxRate: "0.05", ExpenseRate: "0.03", AllowNegativeStock: true,
	})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.TaxRate != "0.05" || first.ExpenseRate != "0.03" || !first.AllowNegativeStock {
		t.Fatalf("first: %+v", first)
	}

	// A second update overwrites the singleton row.
	second, err := env.settings.UpdateSettings(ctx, env.userID, UpdateSettingsRequest{
		TaxRate: "0.1", ExpenseRate: "0.02",
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.TaxRate != "0.1" || second.AllowNegativeStock {
		t.Fatalf("second: %+v", second)
	}

	got, err := env.settings.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TaxRate != "0.1" || got.ExpenseRate != "0.02" || got.AllowNegativeStock {
		t.Fatalf("persisted: %+v", got)
	}
}

func TestUpdateSettingsRejectsOutOfRangeRates(t *testing.T) {
	env := newTestEnv(t)

	cases := []UpdateSettingsRequest{
		{TaxRate: "-0.1", ExpenseRate: "0"},
		{TaxRate: "0", ExpenseRate: "1.5"},
		{TaxRate: "abc", ExpenseRate: "0"},
	}
	for _, req := range cases {
		if _, err := env.settings.UpdateSettings(context.Background(), env.userID, req); err == nil {
			t.Fatalf("accepted %+v", req)
		}
	}
}
