package in

import (
	"context"

	"apptrack/internal/modules/usage/dto"
	usagein "apptrack/internal/modules/usage/port/in"
)

type TUIHandler struct {
	usecase usagein.Usecase
}

func NewTUIHandler(usecase usagein.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

// Day returns per-app usage for date (YYYY-MM-DD); empty means today.
func (h TUIHandler) Day(ctx context.Context, date string) (dto.DailyUsageOutput, error) {
	return h.usecase.DailyUsage(ctx, dto.DailyUsageInput{Date: date})
}

func (h TUIHandler) Top(ctx context.Context, n int) ([]dto.AppUsageOutput, error) {
	return h.usecase.TopApplications(ctx, n)
}

func (h TUIHandler) Categories(ctx context.Context) ([]dto.CategoryOutput, error) {
	return h.usecase.CategoryAnalysis(ctx)
}

func (h TUIHandler) Productivity(ctx context.Context) (dto.ProductivityOutput, error) {
	stats, err := h.usecase.Stats(ctx)
	if err != nil {
		return dto.ProductivityOutput{}, err
	}
	return stats.Productivity, nil
}

func (h TUIHandler) Start(ctx context.Context) error {
	return h.usecase.Start(ctx)
}

func (h TUIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}
