package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "sortomatic.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestInsertManyIdempotent(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	entries := []Entry{
		{Path: "/a/one.txt", Filename: "one.txt", SizeBytes: 3, ModifiedAt: time.Now(), EntryType: File},
		{Path: "/a/two.txt", Filename: "two.txt", SizeBytes: 4, ModifiedAt: time.Now(), EntryType: File},
	}

	if err := c.InsertMany(ctx, entries); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	// Re-inserting the same paths must be a no-op (invariant 1: idempotent).
	if err := c.InsertMany(ctx, entries); err != nil {
		t.Fatalf("second InsertMany: %v", err)
	}

	n, err := c.CountWhere(ctx, Predicate{})
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows after duplicate insert, got %d", n)
	}
}

func TestBulkUpdateAndIterWhere(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if err := c.InsertMany(ctx, []Entry{
		{Path: "/a/one.txt", Filename: "one.txt", SizeBytes: 3, ModifiedAt: time.Now(), EntryType: File},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	var id int64
	for e, err := range c.IterWhere(ctx, CategoryMissing()) {
		if err != nil {
			t.Fatalf("IterWhere: %v", err)
		}
		id = e.ID
	}
	if id == 0 {
		t.Fatalf("expected one uncategorized row")
	}

	err := c.BulkUpdate(ctx, []Update{
		{ID: id, Fields: map[string]any{"category": "Document", "mime_type": "text/plain"}},
	})
	if err != nil {
		t.Fatalf("BulkUpdate: %v", err)
	}

	n, err := c.CountWhere(ctx, CategoryMissing())
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 uncategorized rows after update, got %d", n)
	}
}

func TestHashMissingExcludesBundles(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if err := c.InsertMany(ctx, []Entry{
		{Path: "/repo", Filename: "repo", ModifiedAt: time.Now(), EntryType: Bundle,
			Category: sql.NullString{String: "Project/Bundle", Valid: true}},
		{Path: "/a/one.txt", Filename: "one.txt", SizeBytes: 3, ModifiedAt: time.Now(), EntryType: File},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	n, err := c.CountWhere(ctx, HashMissing())
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 hashable row (bundle excluded), got %d", n)
	}
}

func TestResetDropsRows(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if err := c.InsertMany(ctx, []Entry{
		{Path: "/a/one.txt", Filename: "one.txt", ModifiedAt: time.Now(), EntryType: File},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	n, err := c.CountWhere(ctx, Predicate{})
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows after reset, got %d", n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := openTest(t)
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close should no-op, got: %v", err)
	}
}

func TestChildren(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if err := c.InsertMany(ctx, []Entry{
		{Path: "/root/a.txt", Filename: "a.txt", ModifiedAt: time.Now(), EntryType: File},
		{Path: "/root/sub/b.txt", Filename: "b.txt", ModifiedAt: time.Now(), EntryType: File},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	folders, files, err := c.Children(ctx, "/root", "")
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(folders) != 1 || folders[0] != "sub" {
		t.Fatalf("expected folders=[sub], got %v", folders)
	}
	if len(files) != 1 || files[0].Filename != "a.txt" {
		t.Fatalf("expected files=[a.txt], got %v", files)
	}
}
