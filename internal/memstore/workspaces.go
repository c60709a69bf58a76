package memstore

import (
	"context"

	membershipdomain "devspaces/internal/membership/domain"
	membershiprepo "devspaces/internal/membership/repository"
	workspacedomain "devspaces/internal/workspace/domain"
	workspacerepo "devspaces/internal/workspace/repository"
)

// Workspaces implements the workspace repository.
type Workspaces struct{ s *Store }

func (r *Workspaces) GetByID(ctx context.Context, id string) (*workspacedomain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.workspaces[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *Workspaces) GetByName(ctx context.Context, name string) (*workspacedomain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if w := r.s.workspaceByNameLocked(name); w != nil {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) workspaceByNameLocked(name string) *workspacedomain.Workspace {
	key := foldKey(name)
	for _, w := range s.workspaces {
		if foldKey(w.Name) == key {
			return &w
		}
	}
	return nil
}

func (r *Workspaces) Create(ctx context.Context, w *workspacedomain.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.workspaceByNameLocked(w.Name) != nil {
		return workspacerepo.ErrNameTaken
	}
	r.s.workspaces[w.ID] = *w
	r.s.track(w.ID)
	r.s.members[memberKey{w.ID, w.CreatedBy}] = membershipdomain.Membership{
		WorkspaceID: w.ID, UserID: w.CreatedBy, Role: membershipdomain.RoleAdmin, CreatedAt: w.CreatedAt,
	}
	r.s.track(memberOrderKey(w.ID, w.CreatedBy))
	return nil
}

func (r *Workspaces) Update(ctx context.Context, w *workspacedomain.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if other := r.s.workspaceByNameLocked(w.Name); other != nil && other.ID != w.ID {
		return workspacerepo.ErrNameTaken
	}
	cur, ok := r.s.workspaces[w.ID]
	if !ok {
		return nil
	}
	cur.Name, cur.Description = w.Name, w.Description
	r.s.workspaces[w.ID] = cur
	return nil
}

func (r *Workspaces) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleteWorkspaceLocked(id)
	return nil
}

func (r *Workspaces) ListForUser(ctx context.Context, userID string) ([]*workspacedomain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for k := range r.s.members {
		if k.b == userID {
			if _, ok := r.s.workspaces[k.a]; ok {
				ids = append(ids, k.a)
			}
		}
	}
	r.s.newestFirst(ids)
	out := make([]*workspacedomain.Workspace, 0, len(ids))
	for _, id := range ids {
		w := r.s.workspaces[id]
		out = append(out, &w)
	}
	return out, nil
}

func (r *Workspaces) ListAll(ctx context.Context) ([]*workspacedomain.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.workspaces))
	for id := range r.s.workspaces {
		ids = append(ids, id)
	}
	r.s.newestFirst(ids)
	out := make([]*workspacedomain.Summary, 0, len(ids))
	for _, id := range ids {
		w := r.s.workspaces[id]
		sum := &workspacedomain.Summary{Workspace: w}
		if u, ok := r.s.users[w.CreatedBy]; ok {
			sum.CreatorUsername, sum.CreatorEmail = u.Username, u.Email
		}
		out = append(out, sum)
	}
	return out, nil
}

// Memberships implements the membership repository.
type Memberships struct{ s *Store }

func memberOrderKey(workspaceID, userID string) string {
	return "member:" + workspaceID + ":" + userID
}

func (r *Memberships) Get(ctx context.Context, workspaceID, userID string) (*membershipdomain.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.members[memberKey{workspaceID, userID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *Memberships) ListByWorkspace(ctx context.Context, workspaceID string) ([]*membershipdomain.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var keys []string
	byKey := make(map[string]membershipdomain.Membership)
	for k, m := range r.s.members {
		if k.a == workspaceID {
			ok := memberOrderKey(k.a, k.b)
			keys = append(keys, ok)
			byKey[ok] = m
		}
	}
	r.s.oldestFirst(keys)
	out := make([]*membershipdomain.Member, 0, len(keys))
	for _, k := range keys {
		m := byKey[k]
		u := r.s.users[m.UserID]
		out = append(out, &membershipdomain.Member{UserID: m.UserID, Username: u.Username, Email: u.Email, Role: m.Role})
	}
	return out, nil
}

func (r *Memberships) Insert(ctx context.Context, m *membershipdomain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := memberKey{m.WorkspaceID, m.UserID}
	if _, ok := r.s.members[key]; ok {
		return membershiprepo.ErrAlreadyMember
	}
	r.s.members[key] = *m
	r.s.track(memberOrderKey(m.WorkspaceID, m.UserID))
	return nil
}

func (r *Memberships) UpsertIgnoreConflict(ctx context.Context, m *membershipdomain.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := memberKey{m.WorkspaceID, m.UserID}
	if _, ok := r.s.members[key]; ok {
		return nil
	}
	r.s.members[key] = *m
	r.s.track(memberOrderKey(m.WorkspaceID, m.UserID))
	return nil
}

func (r *Memberships) DeleteForWorkspace(ctx context.Context, workspaceID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k := range r.s.members {
		if k.a == workspaceID {
			delete(r.s.members, k)
		}
	}
	return nil
}
