package postgres

import (
	"database/sql"
	"testing"
)

func TestNullableInt(t *testing.T) {
	t.Run("wraps non-nil value", func(t *testing.T) {
		value := 99
		got := nullableInt(&value)
		if !got.Valid || got.Int64 != 99 {
			t.Fatalf("unexpected null int: %+v", got)
		}
	})

	t.Run("returns invalid for nil", func(t *testing.T) {
		got := nullableInt(nil)
		if got.Valid {
			t.Fatalf("expected invalid null int, got %+v", got)
		}
	})
}

func TestIntPointer(t *testing.T) {
	t.Run("unwraps valid value", func(t *testing.T) {
		got := intPointer(sql.NullInt64{Int64: 25, Valid: true})
		if got == nil || *got != 25 {
			t.Fatalf("unexpected pointer: %v", got)
		}
	})

	t.Run("returns nil for null", func(t *testing.T) {
		if got := intPointer(sql.NullInt64{}); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})
}

func TestInt64SliceToAny(t *testing.T) {
	got := int64SliceToAny([]int64{5, 9})
	if len(got) != 2 {
		t.Fatalf("unexpected length: %d", len(got))
	}
	if got[0].(int64) != 5 || got[1].(int64) != 9 {
		t.Fatalf("unexpected values: %v", got)
	}
}
