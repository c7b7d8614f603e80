package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/vivienda/internal/scheduler"
	"github.com/wonny/vivienda/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `재학습 스케줄러를 시작하거나 작업을 즉시 실행합니다.
스케줄러는 API 서버와 별도 프로세스로 실행됩니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/vivienda scheduler start
  go run ./cmd/vivienda scheduler list
  go run ./cmd/vivienda scheduler run retrain`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- retrain: RETRAIN_SCHEDULE (기본 매일 오전 3시, 데이터셋 재학습)
- verify_artifact: 매시간 (서빙 파일 무결성 및 설정 일치 확인)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행 (완료까지 대기)",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== vivienda Scheduler ===")

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Fprintln(out, "\n✅ Scheduler started successfully")
	printJobs(cmd, sched)
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	<-cmd.Context().Done()

	fmt.Fprintln(out, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(out, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(cmd, sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Fprintf(cmd.OutOrStdout(), "Running job: %s\n", jobName)

	sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(cmd.Context(), jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✅ Job completed")
	return nil
}

func printJobs(cmd *cobra.Command, sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(cmd.OutOrStdout(), "\nRegistered jobs:")
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %-16s %s\n", name, stats[name].Schedule)
	}
}

func initScheduler() (*scheduler.Scheduler, error) {
	rt, err := loadRuntime()
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(rt.log)

	if err := sched.AddJob(jobs.NewRetrainJob(rt.trainer, rt.cfg, rt.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewVerifyJob(rt.trainer, rt.log)); err != nil {
		return nil, err
	}

	return sched, nil
}
