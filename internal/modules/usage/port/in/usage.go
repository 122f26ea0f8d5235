package in

import (
	"context"

	"apptrack/internal/modules/usage/dto"
)

type Usecase interface {
	Run(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Poll(ctx context.Context) error
	Status(ctx context.Context) (dto.StatusOutput, error)
	History(ctx context.Context) (dto.HistoryOutput, error)
	DailyUsage(ctx context.Context, input dto.DailyUsageInput) (dto.DailyUsageOutput, error)
	TopApplications(ctx context.Context, n int) ([]dto.AppUsageOutput, error)
	CategoryAnalysis(ctx context.Context) ([]dto.CategoryOutput, error)
	Stats(ctx context.Context) (dto.StatsOutput, error)
	Report(ctx context.Context) (dto.ReportOutput, error)
	Backup(ctx context.Context) (dto.BackupOutput, error)
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
	Reindex(ctx context.Context) (dto.ReindexOutput, error)
}
