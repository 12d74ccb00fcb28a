package configs

import "github.com/spf13/viper"

// SchedulerConfig 定时任务配置.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// HealthCheckCron 已保存存储配置的周期性连通性检查，标准 5 段 cron 表达式
	HealthCheckCron string `mapstructure:"health_check_cron"`
	// RepairPathsCron 文件夹路径修复，留空表示不调度
	RepairPathsCron string `mapstructure:"repair_paths_cron"`
}

func (c *SchedulerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.health_check_cron", "*/30 * * * *")
	v.SetDefault("scheduler.repair_paths_cron", "0 3 * * *")
}
