package memstore

import (
	"context"
	"time"

	auditdomain "devspaces/internal/audit/domain"
	reportdomain "devspaces/internal/report/domain"
)

// Reports implements the report repository.
type Reports struct{ s *Store }

func (r *Reports) GetByID(ctx context.Context, id string) (*reportdomain.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rep, ok := r.s.reports[id]
	if !ok {
		return nil, nil
	}
	return &rep, nil
}

func (r *Reports) Create(ctx context.Context, rep *reportdomain.Report) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reports[rep.ID] = *rep
	r.s.track(rep.ID)
	return nil
}

func (r *Reports) ListAll(ctx context.Context) ([]*reportdomain.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.reports))
	for id := range r.s.reports {
		ids = append(ids, id)
	}
	r.s.newestFirst(ids)
	out := make([]*reportdomain.Summary, 0, len(ids))
	for _, id := range ids {
		rep := r.s.reports[id]
		sum := &reportdomain.Summary{Report: rep, WorkspaceName: r.s.workspaces[rep.WorkspaceID].Name}
		if u, ok := r.s.users[rep.ReporterID]; ok {
			sum.ReporterUsername, sum.ReporterEmail = u.Username, u.Email
		}
		out = append(out, sum)
	}
	return out, nil
}

func (r *Reports) UpdateStatus(ctx context.Context, id string, status reportdomain.Status, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rep, ok := r.s.reports[id]; ok {
		rep.Status, rep.UpdatedAt = status, at
		r.s.reports[id] = rep
	}
	return nil
}

// AuditLogs implements the audit log repository.
type AuditLogs struct{ s *Store }

// ListByWorkspace returns newest first.
func (r *AuditLogs) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []*auditdomain.AuditLog
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		if r.s.audit[i].WorkspaceID == workspaceID {
			cp := r.s.audit[i]
			matched = append(matched, &cp)
		}
	}
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(matched) {
		return []*auditdomain.AuditLog{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && int(limit) < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *AuditLogs) Create(ctx context.Context, a *auditdomain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *a)
	return nil
}
