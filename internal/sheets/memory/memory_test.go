package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kakeibo/internal/core"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	ledger := core.Ledger{
		{Date: core.NewDate(2024, 1, 1), AccountName: "A", AccountKind: core.KindCash, Owner: "userA", Amount: 1},
		{Date: core.NewDate(2024, 1, 1), AccountName: "A", AccountKind: core.KindCash, Owner: "userA", Amount: 1},
	}
	if err := s.Save(ctx, ledger); err != nil {
		t.Fatalf("save: %v", err)
	}
	// caller mutations must not leak into the store
	ledger[0].Amount = 99

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Amount != 1 || got[1] != got[0] {
		t.Fatalf("unexpected ledger: %+v", got)
	}
}

func TestMemoryStoreWithoutUserTable(t *testing.T) {
	s := New(nil, nil)
	_, err := s.LoadCredentials(context.Background())
	if !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := s.UpdateCredential(context.Background(), "userA", "x"); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("expected configuration error on update, got %v", err)
	}

	if err := s.AddCredential(context.Background(), core.Credential{Username: "userA", Secret: "x"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if names, err := s.Usernames(context.Background()); err != nil || len(names) != 1 {
		t.Fatalf("expected table after add: %v %v", names, err)
	}
}

func TestUpdateCredential(t *testing.T) {
	ctx := context.Background()
	s := New(nil, []core.Credential{{Username: "userA", Secret: "x"}, {Username: "userB", Secret: "y"}})

	ok, err := s.UpdateCredential(ctx, "userA", "0000")
	if err != nil || !ok {
		t.Fatalf("update userA: ok=%v err=%v", ok, err)
	}
	creds, _ := s.LoadCredentials(ctx)
	if creds["userA"] != "0000" || creds["userB"] != "y" {
		t.Fatalf("unexpected credentials: %v", creds)
	}

	ok, err = s.UpdateCredential(ctx, "nobody", "1")
	if err != nil || ok {
		t.Fatalf("update nobody: ok=%v err=%v", ok, err)
	}
	after, _ := s.LoadCredentials(ctx)
	if len(after) != 2 {
		t.Fatalf("store changed: %v", after)
	}
	names, _ := s.Usernames(ctx)
	if len(names) != 2 || names[0] != "userA" || names[1] != "userB" {
		t.Fatalf("unexpected order: %v", names)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	if l, _ := s.Load(context.Background()); len(l) != 0 {
		t.Fatalf("expected empty ledger, got %v", l)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite(LedgerFile, "date,account_name,account_kind,owner,amount,memo\n2024-01-01,Bank,checking,joint,500,\n")
	mustWrite(UsersFile, "username,secret\nuserA,0000\n")

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seeded dir: %v", err)
	}
	l, _ := s.Load(context.Background())
	if len(l) != 1 || l[0].Amount != 500 || l[0].Owner != "joint" {
		t.Fatalf("unexpected ledger: %+v", l)
	}
	creds, err := s.LoadCredentials(context.Background())
	if err != nil || creds["userA"] != "0000" {
		t.Fatalf("unexpected credentials: %v %v", creds, err)
	}

	mustWrite(LedgerFile, "date,account_name,account_kind,owner,amount,memo\nnot-a-date,Bank,checking,joint,500,\n")
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected error for malformed seed")
	}
}
