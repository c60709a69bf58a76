package memstore

import (
	"context"
	"time"

	announcementdomain "devspaces/internal/announcement/domain"
)

// Announcements implements the announcement repository.
type Announcements struct{ s *Store }

func (r *Announcements) CreateWorkspaceAnnouncement(ctx context.Context, a *announcementdomain.WorkspaceAnnouncement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.wsNotes[a.ID] = *a
	r.s.track(a.ID)
	return nil
}

func (r *Announcements) ListWorkspaceAnnouncements(ctx context.Context, workspaceID string) ([]*announcementdomain.WorkspaceAnnouncement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for id, a := range r.s.wsNotes {
		if a.WorkspaceID == workspaceID {
			ids = append(ids, id)
		}
	}
	r.s.newestFirst(ids)
	out := make([]*announcementdomain.WorkspaceAnnouncement, 0, len(ids))
	for _, id := range ids {
		a := r.s.wsNotes[id]
		a.AuthorName = r.s.usernameLocked(a.AuthorID)
		out = append(out, &a)
	}
	return out, nil
}

func (r *Announcements) CreateSiteAnnouncement(ctx context.Context, a *announcementdomain.SiteAnnouncement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.siteNotes[a.ID] = *a
	r.s.track(a.ID)
	return nil
}

func (r *Announcements) ListSiteAnnouncements(ctx context.Context) ([]*announcementdomain.SiteAnnouncement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.siteAnnouncementsLocked(), nil
}

func (s *Store) siteAnnouncementsLocked() []*announcementdomain.SiteAnnouncement {
	ids := make([]string, 0, len(s.siteNotes))
	for id := range s.siteNotes {
		ids = append(ids, id)
	}
	s.newestFirst(ids)
	out := make([]*announcementdomain.SiteAnnouncement, 0, len(ids))
	for _, id := range ids {
		a := s.siteNotes[id]
		a.AuthorName = s.usernameLocked(a.AuthorID)
		out = append(out, &a)
	}
	return out
}

func (r *Announcements) LatestSiteAnnouncement(ctx context.Context) (*announcementdomain.SiteAnnouncement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.s.siteAnnouncementsLocked()
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *Announcements) GetSiteAnnouncement(ctx context.Context, id string) (*announcementdomain.SiteAnnouncement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.siteNotes[id]
	if !ok {
		return nil, nil
	}
	a.AuthorName = r.s.usernameLocked(a.AuthorID)
	return &a, nil
}

func (r *Announcements) HasSeen(ctx context.Context, announcementID, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.seen[memberKey{announcementID, userID}]
	return ok, nil
}

func (r *Announcements) MarkSeen(ctx context.Context, announcementID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := memberKey{announcementID, userID}
	if _, ok := r.s.seen[key]; ok {
		return true, nil
	}
	r.s.seen[key] = time.Now().UTC()
	return false, nil
}
