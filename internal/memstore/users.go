package memstore

import (
	"context"
	"strings"
	"time"

	identitydomain "devspaces/internal/identity/domain"
	identityrepo "devspaces/internal/identity/repository"
	userdomain "devspaces/internal/user/domain"
)

// Users implements the user repository.
type Users struct{ s *Store }

func (r *Users) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) List(ctx context.Context) ([]*userdomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	r.s.oldestFirst(ids)
	out := make([]*userdomain.User, 0, len(ids))
	for _, id := range ids {
		u := r.s.users[id]
		out = append(out, &u)
	}
	return out, nil
}

func (r *Users) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}

func (r *Users) UpdateRole(ctx context.Context, id string, role userdomain.Role) error {
	return r.update(id, func(u *userdomain.User) { u.Role = role })
}

func (r *Users) UpdateUsername(ctx context.Context, id, username string) error {
	return r.update(id, func(u *userdomain.User) { u.Username = username })
}

func (r *Users) SetSubscription(ctx context.Context, id string, sub userdomain.Subscription) error {
	return r.update(id, func(u *userdomain.User) { u.Subscription = sub })
}

func (r *Users) SetNotifyAnnouncements(ctx context.Context, id string, notify bool) error {
	return r.update(id, func(u *userdomain.User) { u.NotifyAnnouncements = notify })
}

func (r *Users) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleteUserLocked(id)
	return nil
}

// update applies fn to the stored user; a missing user is a no-op like an UPDATE matching no rows.
func (r *Users) update(id string, fn func(*userdomain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

// Identities implements the identity repository.
type Identities struct{ s *Store }

func (r *Identities) GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, i := range r.s.identities {
		if i.UserID == userID && i.Provider == provider {
			return &i, nil
		}
	}
	return nil, nil
}

func (r *Identities) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i, ok := r.s.identities[id]; ok {
		i.PasswordHash = passwordHash
		r.s.identities[id] = i
	}
	return nil
}

// Register counts users and inserts under the store's write lock.
func (r *Identities) Register(ctx context.Context, u *userdomain.User, i *identitydomain.Identity, roleFor identityrepo.RoleFor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == email {
			return identityrepo.ErrEmailTaken
		}
	}
	u.Email = email
	u.Role = roleFor(int64(len(r.s.users)))
	r.s.users[u.ID] = *u
	r.s.identities[i.ID] = *i
	r.s.track(u.ID)
	return nil
}
