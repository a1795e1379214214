package store

import (
	"testing"

	"github.com/pmoura/listinha/internal/model"
)

func TestItemPositionsIncrement(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "pos@example.com")
	is := NewItemStore(db)

	names := []string{"Leite", "Pão", "Café", "Arroz"}
	for i, name := range names {
		item, err := is.Create(userID, "Mercado", name, "", "")
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if item.Position != i {
			t.Errorf("%s position = %d, want %d", name, item.Position, i)
		}
	}

	// Positions are per (user, category)
	other, err := is.Create(userID, "Presentes", "Livro", "", "")
	if err != nil {
		t.Fatalf("create in other category: %v", err)
	}
	if other.Position != 0 {
		t.Errorf("other category position = %d, want 0", other.Position)
	}
}

func TestItemCreateFields(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "fields@example.com")
	is := NewItemStore(db)

	item, err := is.Create(userID, "Presentes", "Fone", "R$ 120", "https://example.com/fone")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Value != "R$ 120" {
		t.Errorf("value = %q, want %q", item.Value, "R$ 120")
	}
	if item.Link != "https://example.com/fone" {
		t.Errorf("link = %q", item.Link)
	}
	if item.Checked {
		t.Error("new items start unchecked")
	}
}

func listNames(t *testing.T, is *ItemStore, userID int64, category string) []string {
	t.Helper()
	items, err := is.ListByCategory(userID, category)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

func TestTogglePartitionsCheckedLast(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "toggle@example.com")
	is := NewItemStore(db)

	var ids []int64
	for _, name := range []string{"Leite", "Pão", "Café"} {
		item, err := is.Create(userID, "Mercado", name, "", "")
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, item.ID)
	}

	// Check the first item: it moves below the unchecked ones
	toggled, err := is.Toggle(ids[0])
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Checked {
		t.Error("expected item to be checked")
	}

	got := listNames(t, is, userID, "Mercado")
	want := []string{"Pão", "Café", "Leite"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after toggle order = %v, want %v", got, want)
		}
	}

	// Positions are rewritten contiguously
	items, _ := is.ListByCategory(userID, "Mercado")
	for i, item := range items {
		if item.Position != i {
			t.Errorf("%s position = %d, want %d", item.Name, item.Position, i)
		}
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "twice@example.com")
	is := NewItemStore(db)

	var ids []int64
	for _, name := range []string{"Leite", "Pão", "Café"} {
		item, err := is.Create(userID, "Mercado", name, "", "")
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, item.ID)
	}

	if _, err := is.Toggle(ids[1]); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	item, err := is.Toggle(ids[1])
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if item.Checked {
		t.Error("expected checked to be restored to false")
	}

	// Items whose state never changed keep their relative order
	got := listNames(t, is, userID, "Mercado")
	if got[0] != "Leite" || got[1] != "Café" {
		t.Errorf("unchanged items out of order: %v", got)
	}
}

func TestToggleMissingItem(t *testing.T) {
	db := setupTestDB(t)
	is := NewItemStore(db)

	item, err := is.Toggle(999)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for missing item, got %+v", item)
	}
}

func TestReorderMatchesGivenOrder(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "reorder@example.com")
	is := NewItemStore(db)

	milk, err := is.Create(userID, "Mercado", "Leite", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bread, err := is.Create(userID, "Mercado", "Pão", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Drag bread above milk
	if err := is.Reorder(userID, "Mercado", []int64{bread.ID, milk.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	// A fresh fetch (simulating reload) reflects the persisted order
	got := listNames(t, is, userID, "Mercado")
	if got[0] != "Pão" || got[1] != "Leite" {
		t.Errorf("order = %v, want [Pão Leite]", got)
	}

	items, _ := is.ListByCategory(userID, "Mercado")
	if items[0].Position != 0 || items[1].Position != 1 {
		t.Errorf("positions = %d,%d, want 0,1", items[0].Position, items[1].Position)
	}
}

func TestReorderIgnoresForeignIDs(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "foreign@example.com")
	is := NewItemStore(db)

	a, _ := is.Create(userID, "Mercado", "A", "", "")
	b, _ := is.Create(userID, "Mercado", "B", "", "")
	elsewhere, _ := is.Create(userID, "Presentes", "C", "", "")

	if err := is.Reorder(userID, "Mercado", []int64{elsewhere.ID, b.ID, 4242, a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := listNames(t, is, userID, "Mercado")
	if got[0] != "B" || got[1] != "A" {
		t.Errorf("order = %v, want [B A]", got)
	}

	// The foreign item is untouched
	other, err := is.GetByID(elsewhere.ID)
	if err != nil {
		t.Fatalf("get foreign item: %v", err)
	}
	if other.Position != 0 || other.Category != "Presentes" {
		t.Errorf("foreign item changed: %+v", other)
	}
}

func TestReorderRepeatedIDKeepsFirstSlot(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "repeat@example.com")
	is := NewItemStore(db)

	a, _ := is.Create(userID, "Mercado", "A", "", "")
	b, _ := is.Create(userID, "Mercado", "B", "", "")
	c, _ := is.Create(userID, "Mercado", "C", "", "")

	if err := is.Reorder(userID, "Mercado", []int64{b.ID, b.ID, a.ID, c.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := listNames(t, is, userID, "Mercado")
	if got[0] != "B" || got[1] != "A" || got[2] != "C" {
		t.Errorf("order = %v, want [B A C]", got)
	}

	// Positions stay contiguous despite the repeated id
	items, _ := is.ListByCategory(userID, "Mercado")
	for i, it := range items {
		if it.Position != i {
			t.Errorf("item %q position = %d, want %d", it.Name, it.Position, i)
		}
	}
}

func TestResetCategory(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "reset@example.com")
	is := NewItemStore(db)

	is.Create(userID, "Mercado", "Leite", "", "")
	is.Create(userID, "Mercado", "Pão", "", "")
	is.Create(userID, "Presentes", "Livro", "", "")

	count, err := is.ResetCategory(userID, "Mercado")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if count != 2 {
		t.Errorf("cleared = %d, want 2", count)
	}

	if items, _ := is.ListByCategory(userID, "Mercado"); len(items) != 0 {
		t.Errorf("expected empty category, got %d items", len(items))
	}
	if items, _ := is.ListByCategory(userID, "Presentes"); len(items) != 1 {
		t.Errorf("other category affected, got %d items", len(items))
	}
}

func TestResetEmptyCategoryIsNoop(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "noop@example.com")
	is := NewItemStore(db)

	count, err := is.ResetCategory(userID, "Mercado")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if count != 0 {
		t.Errorf("cleared = %d, want 0", count)
	}
}

func TestItemDelete(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "delitem@example.com")
	is := NewItemStore(db)

	item, err := is.Create(userID, "Mercado", "Leite", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := is.Delete(item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := is.GetByID(item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected item to be gone")
	}
}

func TestItemImportAppendsAfterExisting(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "import@example.com")
	is := NewItemStore(db)

	if _, err := is.Create(userID, "Mercado", "Leite", "", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	imported, err := is.Import(userID, "Mercado", []model.Item{
		{Name: "Pão"},
		{Name: "Café", Checked: true, Value: "R$ 20"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != 2 {
		t.Errorf("imported = %d, want 2", imported)
	}

	items, err := is.ListByCategory(userID, "Mercado")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[1].Name != "Pão" || items[1].Position != 1 {
		t.Errorf("items[1] = %+v, want Pão at position 1", items[1])
	}
	if items[2].Name != "Café" || !items[2].Checked || items[2].Position != 2 {
		t.Errorf("items[2] = %+v, want checked Café at position 2", items[2])
	}
}

func TestItemImportEmpty(t *testing.T) {
	db := setupTestDB(t)
	userID := createTestUser(t, db, "importempty@example.com")
	is := NewItemStore(db)

	imported, err := is.Import(userID, "Mercado", nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != 0 {
		t.Errorf("imported = %d, want 0", imported)
	}
}
