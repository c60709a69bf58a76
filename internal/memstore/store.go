// Package memstore keeps every repository in process memory behind one lock. It backs the
// server when no DATABASE_URL is configured, and service tests. Deletes cascade the way
// the Postgres foreign keys do.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	announcementdomain "devspaces/internal/announcement/domain"
	auditdomain "devspaces/internal/audit/domain"
	identitydomain "devspaces/internal/identity/domain"
	membershipdomain "devspaces/internal/membership/domain"
	reportdomain "devspaces/internal/report/domain"
	taskdomain "devspaces/internal/task/domain"
	userdomain "devspaces/internal/user/domain"
	workspacedomain "devspaces/internal/workspace/domain"
)

type Store struct {
	mu sync.RWMutex

	users       map[string]userdomain.User
	identities  map[string]identitydomain.Identity
	workspaces  map[string]workspacedomain.Workspace
	members     map[memberKey]membershipdomain.Membership
	tasks       map[string]taskdomain.Task
	assignments []taskdomain.Assignment
	wsNotes     map[string]announcementdomain.WorkspaceAnnouncement
	siteNotes   map[string]announcementdomain.SiteAnnouncement
	seen        map[memberKey]time.Time // announcement id, user id
	reports     map[string]reportdomain.Report
	audit       []auditdomain.AuditLog
	order       map[string]int64 // insertion sequence per entity id
	seq         int64
}

type memberKey struct{ a, b string }

func New() *Store {
	return &Store{
		users:      make(map[string]userdomain.User),
		identities: make(map[string]identitydomain.Identity),
		workspaces: make(map[string]workspacedomain.Workspace),
		members:    make(map[memberKey]membershipdomain.Membership),
		tasks:      make(map[string]taskdomain.Task),
		wsNotes:    make(map[string]announcementdomain.WorkspaceAnnouncement),
		siteNotes:  make(map[string]announcementdomain.SiteAnnouncement),
		seen:       make(map[memberKey]time.Time),
		reports:    make(map[string]reportdomain.Report),
		order:      make(map[string]int64),
	}
}

func (s *Store) Users() *Users                 { return &Users{s} }
func (s *Store) Identities() *Identities       { return &Identities{s} }
func (s *Store) Workspaces() *Workspaces       { return &Workspaces{s} }
func (s *Store) Memberships() *Memberships     { return &Memberships{s} }
func (s *Store) Tasks() *Tasks                 { return &Tasks{s} }
func (s *Store) Announcements() *Announcements { return &Announcements{s} }
func (s *Store) Reports() *Reports             { return &Reports{s} }
func (s *Store) AuditLogs() *AuditLogs         { return &AuditLogs{s} }

// track records id's insertion position so listings can order by creation without relying
// on timestamp resolution.
func (s *Store) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

// newestFirst sorts ids by descending insertion position.
func (s *Store) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] > s.order[ids[j]] })
}

// oldestFirst sorts ids by ascending insertion position.
func (s *Store) oldestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] < s.order[ids[j]] })
}

// deleteWorkspaceLocked removes a workspace and everything that references it.
func (s *Store) deleteWorkspaceLocked(id string) {
	delete(s.workspaces, id)
	for k := range s.members {
		if k.a == id {
			delete(s.members, k)
		}
	}
	for tid, t := range s.tasks {
		if t.WorkspaceID == id {
			s.deleteTaskLocked(tid)
		}
	}
	for aid, a := range s.wsNotes {
		if a.WorkspaceID == id {
			delete(s.wsNotes, aid)
		}
	}
	for rid, r := range s.reports {
		if r.WorkspaceID == id {
			delete(s.reports, rid)
		}
	}
}

func (s *Store) deleteTaskLocked(id string) {
	delete(s.tasks, id)
	s.assignments = filterAssignments(s.assignments, func(a taskdomain.Assignment) bool { return a.TaskID != id })
}

// deleteUserLocked removes a user with cascade and set-null semantics.
func (s *Store) deleteUserLocked(id string) {
	delete(s.users, id)
	for iid, i := range s.identities {
		if i.UserID == id {
			delete(s.identities, iid)
		}
	}
	for k := range s.members {
		if k.b == id {
			delete(s.members, k)
		}
	}
	s.assignments = filterAssignments(s.assignments, func(a taskdomain.Assignment) bool { return a.UserID != id })
	for i := range s.assignments {
		if s.assignments[i].AssignedBy == id {
			s.assignments[i].AssignedBy = ""
		}
	}
	for k := range s.seen {
		if k.b == id {
			delete(s.seen, k)
		}
	}
	for wid, w := range s.workspaces {
		if w.CreatedBy == id {
			w.CreatedBy = ""
			s.workspaces[wid] = w
		}
	}
	for tid, t := range s.tasks {
		if t.CreatedBy == id {
			t.CreatedBy = ""
			s.tasks[tid] = t
		}
	}
	for aid, a := range s.wsNotes {
		if a.AuthorID == id {
			a.AuthorID = ""
			s.wsNotes[aid] = a
		}
	}
	for aid, a := range s.siteNotes {
		if a.AuthorID == id {
			a.AuthorID = ""
			s.siteNotes[aid] = a
		}
	}
	for rid, r := range s.reports {
		if r.ReporterID == id {
			r.ReporterID = ""
			s.reports[rid] = r
		}
	}
}

func (s *Store) usernameLocked(id string) string {
	if u, ok := s.users[id]; ok {
		return u.Username
	}
	return ""
}

func filterAssignments(in []taskdomain.Assignment, keep func(taskdomain.Assignment) bool) []taskdomain.Assignment {
	out := in[:0]
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func foldKey(s string) string { return strings.ToLower(s) }
