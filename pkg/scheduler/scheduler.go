// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/docvault/pkg/log"
)

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下次运行
	StatusRunning   JobStatus = "running"   // 正在运行
	StatusError     JobStatus = "error"     // 上次运行失败
)

// Job 任务函数，返回的错误会记录到 JobInfo.
type Job func(ctx context.Context) error

// JobInfo 任务运行状态，供 CLI 与日志使用.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cronExpr"`
	NextRun     time.Time `json:"nextRun"`
	LastRun     time.Time `json:"lastRun"`
	LastSuccess time.Time `json:"lastSuccess,omitzero"`
	Runs        int       `json:"runs"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
}

// Scheduler 包装 gocron.Scheduler，按名称管理任务.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	tasks     map[string]Job
	infos     map[string]*JobInfo
	mu        sync.RWMutex
	logger    *zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New 创建调度器. 任务同一时刻只运行一个实例.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(gocron.WithSingletonMode(gocron.LimitModeReschedule)),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]gocron.Job),
		tasks:     make(map[string]Job),
		infos:     make(map[string]*JobInfo),
		logger:    log.Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddCron 添加一个基于 5 段 cron 表达式的任务，名称必须唯一.
func (s *Scheduler) AddCron(name, cronExpr string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { s.run(name, job) }),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	nextRun, _ := j.NextRun()

	s.jobs[name] = j
	s.tasks[name] = job
	s.infos[name] = &JobInfo{
		ID:       j.ID().String(),
		Name:     name,
		CronExpr: cronExpr,
		NextRun:  nextRun,
		Status:   StatusScheduled,
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// RunNow 立即执行一次已注册的任务（同步），用于 CLI 与测试.
func (s *Scheduler) RunNow(name string) error {
	j := s.lookup(name)
	if j == nil {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	return s.run(name, j)
}

// run 执行任务并更新状态，panic 转为错误.
func (s *Scheduler) run(name string, job Job) (err error) {
	l := s.logger.With().Str("job", name).Logger()
	ctx := l.WithContext(s.ctx)

	s.update(name, func(info *JobInfo) { info.Status = StatusRunning })

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job: %v", r)
		}

		next := s.nextRun(name)

		s.update(name, func(info *JobInfo) {
			info.LastRun = start
			info.Runs++

			if !next.IsZero() {
				info.NextRun = next
			}

			if err != nil {
				info.Status = StatusError
				info.Error = err.Error()

				return
			}

			info.Status = StatusScheduled
			info.Error = ""
			info.LastSuccess = time.Now()
		})

		if err != nil {
			l.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Job failed")
		} else {
			l.Debug().Dur("elapsed", time.Since(start)).Msg("Job finished")
		}
	}()

	return job(ctx)
}

// lookup 返回注册时的任务函数，不存在时为 nil.
func (s *Scheduler) lookup(name string) Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tasks[name]
}

func (s *Scheduler) nextRun(name string) time.Time {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return time.Time{}
	}

	next, err := j.NextRun()
	if err != nil {
		return time.Time{}
	}

	return next
}

func (s *Scheduler) update(name string, fn func(info *JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		fn(info)
	}
}

// JobInfos 按名称排序返回所有任务的状态快照.
func (s *Scheduler) JobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, *info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Starting scheduler")
	s.scheduler.Start()
}

// Shutdown 取消运行中任务的 context 并等待调度器退出.
func (s *Scheduler) Shutdown() error {
	s.logger.Info().Msg("Stopping scheduler")
	s.cancel()

	return s.scheduler.Shutdown()
}
