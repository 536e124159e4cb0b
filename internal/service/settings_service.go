package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/metrify/backend/internal/model"
	"github.com/metrify/backend/internal/repository"

	"github.com/shopspring/decimal"
)

// DTOs
type UpdateSettingsRequest struct {
	TaxRate            string `json:"tax_rate" binding:"required"`     // fraction of revenue, e.g. "0.05"
	ExpenseRate        string `json:"expense_rate" binding:"required"` // fraction of revenue, e.g. "0.035"
	AllowNegativeStock bool   `json:"allow_negative_stock"`
}

type SettingsResponse struct {
	TaxRate            string `json:"tax_rate"`
	ExpenseRate        string `json:"expense_rate"`
	AllowNegativeStock bool   `json:"allow_negative_stock"`
}

type SettingsService interface {
	GetSettings(ctx context.Context) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, userID string, req UpdateSettingsRequest) (SettingsResponse, error)
}

type settingsService struct {
	settingsRepo repository.SettingsRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSettingsService(
	settingsRepo repository.SettingsRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *settingsService) GetSettings(ctx context.Context) (SettingsResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return SettingsResponse{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if settings == nil {
		// Not configured yet: zero rates, strict stock policy.
		return SettingsResponse{TaxRate: "0", ExpenseRate: "0"}, nil
	}
	return SettingsResponse{
		TaxRate:            settings.TaxRate.String(),
		ExpenseRate:        settings.ExpenseRate.String(),
		AllowNegativeStock: settings.AllowNegativeStock,
	}, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID string, req UpdateSettingsRequest) (SettingsResponse, error) {
	taxRate, err := parseRate("tax_rate", req.TaxRate)
	if err != nil {
		return SettingsResponse{}, err
	}
	expenseRate, err := parseRate("expense_rate", req.ExpenseRate)
	if err != nil {
		return SettingsResponse{}, err
	}

	settings := model.Settings{
		TaxRate:            taxRate,
		ExpenseRate:        expenseRate,
		AllowNegativeStock: req.AllowNegativeStock,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.settingsRepo.Upsert(txCtx, &settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			UserID:   parseUserID(userID),
			Action:   model.ActionUpdateSettings,
			EntityID: "settings",
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})

	if err != nil {
		return SettingsResponse{}, err
	}

	return SettingsResponse{
		TaxRate:            settings.TaxRate.String(),
		ExpenseRate:        settings.ExpenseRate.String(),
		AllowNegativeStock: settings.AllowNegativeStock,
	}, nil
}

func parseRate(name, raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be a fraction between 0 and 1, got %s", name, raw)
	}
	return rate, nil
}
