package biome

import (
	"context"
	"errors"
	"fmt"

	"biome/internal/scheduler"
)

func (s *Service) registerTasks() error {
	s.sched.RegisterHandler(scheduler.TaskRecomputeSummary, func(ctx context.Context, _ *scheduler.Schedule) error {
		s.RecomputeSummary()
		return nil
	})

	s.sched.RegisterHandler(scheduler.TaskRescanRoots, func(ctx context.Context, _ *scheduler.Schedule) error {
		var errs []error
		for _, root := range s.coord.Roots() {
			if _, err := s.SubmitScan(root); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", root, err))
			}
		}
		return errors.Join(errs...)
	})

	s.sched.RegisterHandler(scheduler.TaskSaveSnapshot, func(ctx context.Context, _ *scheduler.Schedule) error {
		return s.SaveSnapshot(ctx)
	})

	for _, task := range s.cfg.Scheduler.Tasks {
		taskType, ok := scheduler.ParseTaskType(task.TaskType)
		if !ok {
			return fmt.Errorf("scheduler task %s: unknown task type %q", task.ID, task.TaskType)
		}
		if _, err := s.sched.Add(task.ID, taskType, task.Expression); err != nil {
			return err
		}
		if !task.Enabled {
			if err := s.sched.SetEnabled(task.ID, false); err != nil {
				return err
			}
		}
	}
	return nil
}
