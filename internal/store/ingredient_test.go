package store

import (
	"testing"
)

func TestIngredientStoreListPrefix(t *testing.T) {
	db := testDB(t)
	s := NewIngredientStore(db)

	mustIngredient(t, db, "zz-test-flour", "g")
	mustIngredient(t, db, "zz-test-flaxseed", "g")
	mustIngredient(t, db, "zz-test-milk", "ml")

	items, err := s.List("zz-test-fl")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List returned %d items, want 2", len(items))
	}
	// Ordered by name.
	if items[0].Name != "zz-test-flaxseed" || items[1].Name != "zz-test-flour" {
		t.Errorf("unexpected order: %q, %q", items[0].Name, items[1].Name)
	}

	// Prefix match is case-sensitive.
	items, err = s.List("ZZ-TEST")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("uppercase prefix matched %d items, want 0", len(items))
	}
}

func TestIngredientStoreImportIdempotent(t *testing.T) {
	db := testDB(t)
	s := NewIngredientStore(db)

	rows := []ImportRow{
		{Name: "zz-import-salt", MeasurementUnit: "g"},
		{Name: "zz-import-salt", MeasurementUnit: "tsp"},
		{Name: "zz-import-oil", MeasurementUnit: "ml"},
	}
	t.Cleanup(func() {
		cleanIngredients(t, db, "zz-import-salt", "zz-import-oil")
	})

	inserted, err := s.Import(rows)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if inserted != 3 {
		t.Errorf("first Import inserted %d rows, want 3", inserted)
	}

	// Same (name, unit) pairs again: nothing new.
	inserted, err = s.Import(rows)
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if inserted != 0 {
		t.Errorf("second Import inserted %d rows, want 0", inserted)
	}
}
