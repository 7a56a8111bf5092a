package domain

import "testing"

func TestEq_Matches(t *testing.T) {
	f := Eq{Key: "relative_path", Value: "report.txt"}

	t.Run("matching value", func(t *testing.T) {
		if !f.Matches(map[string]string{"relative_path": "report.txt"}) {
			t.Error("expected match")
		}
	})

	t.Run("different value", func(t *testing.T) {
		if f.Matches(map[string]string{"relative_path": "other.txt"}) {
			t.Error("expected no match")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if f.Matches(map[string]string{"other": "report.txt"}) {
			t.Error("expected no match for missing key")
		}
	})

	t.Run("nil attributes", func(t *testing.T) {
		if f.Matches(nil) {
			t.Error("expected no match for nil attributes")
		}
	})
}

func TestAnd_Matches(t *testing.T) {
	attrs := map[string]string{"a": "1", "b": "2"}

	t.Run("all match", func(t *testing.T) {
		f := And{Eq{Key: "a", Value: "1"}, Eq{Key: "b", Value: "2"}}
		if !f.Matches(attrs) {
			t.Error("expected match")
		}
	})

	t.Run("one fails", func(t *testing.T) {
		f := And{Eq{Key: "a", Value: "1"}, Eq{Key: "b", Value: "wrong"}}
		if f.Matches(attrs) {
			t.Error("expected no match")
		}
	})

	t.Run("empty conjunction matches everything", func(t *testing.T) {
		if !(And{}).Matches(attrs) {
			t.Error("expected empty And to match")
		}
	})
}

func TestSchema_FieldNames(t *testing.T) {
	s := Schema{
		"revenue":    {Type: "number"},
		"assets":     {Type: "number"},
		"net_income": {Type: "number"},
	}

	names := s.FieldNames()
	want := []string{"assets", "net_income", "revenue"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected names[%d] = %q, got %q", i, want[i], names[i])
		}
	}
}
