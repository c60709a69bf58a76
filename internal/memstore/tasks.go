package memstore

import (
	"context"

	taskdomain "devspaces/internal/task/domain"
)

// Tasks implements the task repository.
type Tasks struct{ s *Store }

func (r *Tasks) GetByID(ctx context.Context, id string) (*taskdomain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, nil
	}
	t.AssigneeID = r.s.assigneeLocked(id)
	return &t, nil
}

func (s *Store) assigneeLocked(taskID string) string {
	for _, a := range s.assignments {
		if a.TaskID == taskID {
			return a.UserID
		}
	}
	return ""
}

func (r *Tasks) Create(ctx context.Context, t *taskdomain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	cp.AssigneeID = ""
	r.s.tasks[t.ID] = cp
	r.s.track(t.ID)
	return nil
}

func (r *Tasks) ListByWorkspace(ctx context.Context, workspaceID string) ([]*taskdomain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for id, t := range r.s.tasks {
		if t.WorkspaceID == workspaceID {
			ids = append(ids, id)
		}
	}
	r.s.newestFirst(ids)
	out := make([]*taskdomain.Task, 0, len(ids))
	for _, id := range ids {
		t := r.s.tasks[id]
		t.AssigneeID = r.s.assigneeLocked(id)
		out = append(out, &t)
	}
	return out, nil
}

func (r *Tasks) Assign(ctx context.Context, a *taskdomain.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments = filterAssignments(r.s.assignments, func(x taskdomain.Assignment) bool { return x.TaskID != a.TaskID })
	r.s.assignments = append(r.s.assignments, *a)
	return nil
}

func (r *Tasks) ListAssignments(ctx context.Context, taskID string) ([]*taskdomain.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*taskdomain.Assignment
	for _, a := range r.s.assignments {
		if a.TaskID == taskID {
			cp := a
			out = append(out, &cp)
		}
	}
	return out, nil
}
