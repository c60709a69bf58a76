package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devspaces/internal/db/dbtest"
	"devspaces/internal/membership/domain"
)

func TestPostgresRepository_UpsertIgnoreConflict(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	dbtest.InsertUser(t, conn, "owner")
	dbtest.InsertUser(t, conn, "dev")
	dbtest.InsertWorkspace(t, conn, "alpha", "owner")
	repo := NewPostgresRepository(conn)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.UpsertIgnoreConflict(ctx, &domain.Membership{
				WorkspaceID: "alpha", UserID: "owner", Role: domain.RoleAdmin, CreatedAt: time.Now().UTC(),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent UpsertIgnoreConflict: %v", err)
		}
	}
	members, err := repo.ListByWorkspace(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].Role != domain.RoleAdmin {
		t.Fatalf("members = %+v, want one admin row", members)
	}

	if err := repo.Insert(ctx, &domain.Membership{WorkspaceID: "alpha", UserID: "dev", Role: domain.RoleDeveloper, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.UpsertIgnoreConflict(ctx, &domain.Membership{WorkspaceID: "alpha", UserID: "dev", Role: domain.RoleAdmin, CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatal(err)
	}
	m, err := repo.Get(ctx, "alpha", "dev")
	if err != nil || m == nil || m.Role != domain.RoleDeveloper {
		t.Errorf("existing row after upsert = %+v, %v; want developer untouched", m, err)
	}
	err = repo.Insert(ctx, &domain.Membership{WorkspaceID: "alpha", UserID: "dev", Role: domain.RoleAdmin, CreatedAt: time.Now().UTC()})
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("duplicate Insert err = %v, want ErrAlreadyMember", err)
	}
	if m, err := repo.Get(ctx, "alpha", "nobody"); err != nil || m != nil {
		t.Errorf("Get missing = %+v, %v", m, err)
	}
}
