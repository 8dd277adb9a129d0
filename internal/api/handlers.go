package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"biome/internal/biome"
	"biome/internal/classify"
	biomeerrors "biome/internal/errors"
	"biome/internal/jobs"
	"biome/internal/reorganize"
	"biome/internal/version"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   version.Version,
		"roots":     s.svc.Roots(),
		"jobs":      s.svc.Jobs().Stats(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.GetSummary())
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.RecomputeSummary())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := s.validate.Decode(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	result, err := s.svc.ScanDirectory(r.Context(), req.Path)
	if err != nil {
		var be *biomeerrors.BiomeError
		if errors.As(err, &be) && be.Details == nil {
			be.WithDetails(result)
		}
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOrganize(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOrganize(w, r)
	if !ok {
		return
	}
	result, err := s.svc.Organize(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) decodeOrganize(w http.ResponseWriter, r *http.Request) (reorganize.Options, bool) {
	var req OrganizeRequest
	if err := s.validate.Decode(r, &req); err != nil {
		WriteServiceError(w, err)
		return reorganize.Options{}, false
	}
	return reorganize.Options{
		TargetDirectory: req.TargetDirectory,
		Strategy:        reorganize.Strategy(req.Strategy),
		CreateBackup:    req.CreateBackup,
		DryRun:          req.DryRun,
	}, true
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.FindDuplicates(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"duplicates": groups,
		"count":      len(groups),
	})
}

func (s *Server) handleCloak(w http.ResponseWriter, r *http.Request) {
	var req CloakRequest
	if err := s.validate.Decode(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	n, err := s.svc.Cloak(r.Context(), req.Path)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := NodesQuery{
		Dir:      q.Get("dir"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			WriteServiceError(w, biomeerrors.Newf(biomeerrors.InvalidArgument, "invalid limit: %q", raw))
			return
		}
		query.Limit = limit
	}
	if err := s.validate.Struct(&query); err != nil {
		WriteServiceError(w, err)
		return
	}
	nodes := s.svc.Nodes(biome.NodeFilter{
		Dir:      query.Dir,
		Type:     classify.FileType(query.Type),
		Category: classify.Category(query.Category),
		Tag:      query.Tag,
		Limit:    query.Limit,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nodes": nodes,
		"count": len(nodes),
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.UsagePatterns())
}

func (s *Server) handleInsightsHealth(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.HealthReport(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleInsightsArchive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ArchiveSuggestions())
}

func (s *Server) handleInsightsAccess(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.AccessPatterns())
}

func (s *Server) handleInsightsOrganization(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.OrganizationSuggestions())
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := jobs.ListJobsOptions{}
	if st := q.Get("status"); st != "" {
		opts.Status = []jobs.JobStatus{jobs.JobStatus(st)}
	}
	if typ := q.Get("type"); typ != "" {
		opts.Type = []jobs.JobType{jobs.JobType(typ)}
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	resp, err := s.svc.Jobs().ListJobs(opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := s.validate.Decode(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	job, err := s.svc.SubmitScan(req.Path)
	s.writeSubmitted(w, job, err)
}

func (s *Server) handleSubmitOrganize(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOrganize(w, r)
	if !ok {
		return
	}
	job, err := s.svc.SubmitOrganize(opts)
	s.writeSubmitted(w, job, err)
}

func (s *Server) handleSubmitDuplicates(w http.ResponseWriter, r *http.Request) {
	job, err := s.svc.SubmitDuplicates()
	s.writeSubmitted(w, job, err)
}

func (s *Server) writeSubmitted(w http.ResponseWriter, job *jobs.Job, err error) {
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.svc.Jobs().GetJob(id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if job == nil {
		WriteError(w, biomeerrors.Newf(biomeerrors.InvalidArgument, "job not found: %s", id), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	switch err := s.svc.Jobs().Cancel(id); {
	case errors.Is(err, jobs.ErrJobNotFound):
		WriteError(w, biomeerrors.Newf(biomeerrors.InvalidArgument, "job not found: %s", id), http.StatusNotFound)
		return
	case errors.Is(err, jobs.ErrNotCancellable):
		WriteError(w, biomeerrors.New(biomeerrors.InvalidArgument, "cannot cancel job", err), http.StatusConflict)
		return
	case err != nil:
		WriteServiceError(w, err)
		return
	}
	job, _ := s.svc.Jobs().GetJob(id)
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": s.svc.Scheduler().List(),
	})
}

func (s *Server) handleRunSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.svc.Scheduler().Get(id); !ok {
		WriteError(w, biomeerrors.Newf(biomeerrors.InvalidArgument, "schedule not found: %s", id), http.StatusNotFound)
		return
	}
	if err := s.svc.Scheduler().RunNow(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	sched, _ := s.svc.Scheduler().Get(id)
	writeJSON(w, http.StatusOK, sched)
}
