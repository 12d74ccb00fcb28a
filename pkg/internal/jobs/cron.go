// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/errs"
	"github.com/yeisme/docvault/pkg/internal/service"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/scheduler"
)

// Register 按配置注册业务定时任务：
//   - 已保存存储配置的连通性检查，结果写入 last_tested_at 并发出 storage.tested 事件
//   - 文件夹物化路径修复
//
// cron 表达式留空的任务不注册.
func Register(sched *scheduler.Scheduler, cfg configs.SchedulerConfig, storage *service.StorageService, folders *service.FolderService) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if cfg.HealthCheckCron != "" {
		if err := sched.AddCron(JobStorageHealthCheck, cfg.HealthCheckCron, StorageHealthCheck(storage)); err != nil {
			return err
		}
	}

	if cfg.RepairPathsCron != "" {
		if err := sched.AddCron(JobFolderRepairPaths, cfg.RepairPathsCron, RepairPaths(folders)); err != nil {
			return err
		}
	}

	return nil
}

// StorageHealthCheck 测试已保存的配置. 尚未配置时跳过，测试未通过只记录告警.
func StorageHealthCheck(storage *service.StorageService) scheduler.Job {
	return func(ctx context.Context) error {
		l := log.Ctx(ctx)

		result, err := storage.Test(ctx, nil)
		if errors.Is(err, errs.ErrNotFound) {
			l.Debug().Msg("storage not configured, skipping health check")
			return nil
		}

		if err != nil {
			return err
		}

		if !result.Success {
			l.Warn().Str("error", result.Error).Str("summary", result.Summary()).Msg("stored storage configuration is unhealthy")
			return nil
		}

		l.Info().Str("summary", result.Summary()).Msg("storage health check passed")

		return nil
	}
}

// RepairPaths 修复与父链不一致的文件夹路径.
func RepairPaths(folders *service.FolderService) scheduler.Job {
	return func(ctx context.Context) error {
		fixed, err := folders.RepairPaths(ctx)
		if err != nil {
			return err
		}

		if fixed > 0 {
			log.Ctx(ctx).Warn().Int("fixed", fixed).Msg("repaired stale folder paths")
		}

		return nil
	}
}
