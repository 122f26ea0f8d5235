package in

import (
	"context"

	"apptrack/internal/modules/usage/dto"
	usagein "apptrack/internal/modules/usage/port/in"
)

type CLIHandler struct {
	usecase usagein.Usecase
}

func NewCLIHandler(usecase usagein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Track blocks until ctx is cancelled.
func (h CLIHandler) Track(ctx context.Context) error {
	return h.usecase.Run(ctx)
}

// Start runs the loop in the background; Stop halts it and waits for the
// final save. The HTTP controls act on the same loop.
func (h CLIHandler) Start(ctx context.Context) error {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) ProbeOnce(ctx context.Context) (dto.StatusOutput, error) {
	if err := h.usecase.Poll(ctx); err != nil {
		return dto.StatusOutput{}, err
	}
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Report(ctx context.Context) (dto.ReportOutput, error) {
	return h.usecase.Report(ctx)
}

func (h CLIHandler) Stats(ctx context.Context) (dto.StatsOutput, error) {
	return h.usecase.Stats(ctx)
}

func (h CLIHandler) Top(ctx context.Context, n int) ([]dto.AppUsageOutput, error) {
	return h.usecase.TopApplications(ctx, n)
}

func (h CLIHandler) Today(ctx context.Context, date string) (dto.DailyUsageOutput, error) {
	return h.usecase.DailyUsage(ctx, dto.DailyUsageInput{Date: date})
}

func (h CLIHandler) Categories(ctx context.Context) ([]dto.CategoryOutput, error) {
	return h.usecase.CategoryAnalysis(ctx)
}

func (h CLIHandler) Apps(ctx context.Context) (dto.HistoryOutput, error) {
	return h.usecase.History(ctx)
}

func (h CLIHandler) Export(ctx context.Context, format string) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx, dto.ExportInput{Format: format})
}

func (h CLIHandler) Backup(ctx context.Context) (dto.BackupOutput, error) {
	return h.usecase.Backup(ctx)
}

func (h CLIHandler) Reindex(ctx context.Context) (dto.ReindexOutput, error) {
	return h.usecase.Reindex(ctx)
}
