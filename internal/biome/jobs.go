package biome

import (
	"context"

	"biome/internal/duplicates"
	"biome/internal/jobs"
	"biome/internal/reorganize"
)

// DuplicatesResult is the result of a duplicate scan job.
type DuplicatesResult struct {
	Groups     int                    `json:"groups" yaml:"groups"`
	Duplicates []duplicates.Duplicate `json:"duplicates" yaml:"duplicates"`
}

func (s *Service) registerJobHandlers() {
	s.runner.RegisterHandler(jobs.JobTypeScan, func(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
		scope, err := jobs.ParseScanScope(job.Scope)
		if err != nil {
			return nil, err
		}
		result, err := s.ScanDirectory(ctx, scope.Path)
		if err != nil {
			return nil, err
		}
		return result, nil
	})

	s.runner.RegisterHandler(jobs.JobTypeOrganize, func(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
		scope, err := jobs.ParseOrganizeScope(job.Scope)
		if err != nil {
			return nil, err
		}
		return s.Organize(ctx, reorganize.Options{
			TargetDirectory: scope.TargetDirectory,
			Strategy:        reorganize.Strategy(scope.Strategy),
			CreateBackup:    scope.CreateBackup,
			DryRun:          scope.DryRun,
		})
	})

	s.runner.RegisterHandler(jobs.JobTypeDuplicates, func(ctx context.Context, job *jobs.Job, progress func(int)) (interface{}, error) {
		dups, err := s.FindDuplicates(ctx)
		if err != nil {
			return nil, err
		}
		return DuplicatesResult{Groups: duplicates.CountGroups(dups), Duplicates: dups}, nil
	})
}

// SubmitScan queues a directory scan.
func (s *Service) SubmitScan(path string) (*jobs.Job, error) {
	return s.submit(jobs.JobTypeScan, jobs.ScanScope{Path: path})
}

// SubmitOrganize queues an organize run.
func (s *Service) SubmitOrganize(opts reorganize.Options) (*jobs.Job, error) {
	return s.submit(jobs.JobTypeOrganize, jobs.OrganizeScope{
		TargetDirectory: opts.TargetDirectory,
		Strategy:        string(opts.Strategy),
		CreateBackup:    opts.CreateBackup,
		DryRun:          opts.DryRun,
	})
}

// SubmitDuplicates queues a duplicate scan.
func (s *Service) SubmitDuplicates() (*jobs.Job, error) {
	return s.submit(jobs.JobTypeDuplicates, nil)
}

func (s *Service) submit(jobType jobs.JobType, scope interface{}) (*jobs.Job, error) {
	job, err := jobs.NewJob(jobType, scope)
	if err != nil {
		return nil, err
	}
	queued := *job
	if err := s.runner.Submit(job); err != nil {
		return nil, err
	}
	return &queued, nil
}
