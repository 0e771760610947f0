package identification

import (
	"reflect"
	"testing"
)

func TestPlanOrdersQueries(t *testing.T) {
	tests := []struct {
		name string
		in   Candidate
		want []SearchQuery
	}{
		{
			name: "title and year",
			in:   Candidate{Title: "Rocky", Year: 1976},
			want: []SearchQuery{{Text: "Rocky", Year: 1976, Priority: 1}, {Text: "Rocky", Priority: 2}},
		},
		{
			name: "variant with year",
			in:   Candidate{Title: "Rocky IV", Year: 1985, RomanVariant: "Rocky 4"},
			want: []SearchQuery{
				{Text: "Rocky IV", Year: 1985, Priority: 1},
				{Text: "Rocky IV", Priority: 2},
				{Text: "Rocky 4", Year: 1985, Priority: 3},
			},
		},
		{
			name: "variant without year",
			in:   Candidate{Title: "Rocky IV", RomanVariant: "Rocky 4"},
			want: []SearchQuery{{Text: "Rocky IV", Priority: 1}, {Text: "Rocky 4", Priority: 2}},
		},
		{
			name: "duplicate variant suppressed",
			in:   Candidate{Title: "Rocky", Year: 1976, RomanVariant: "rocky"},
			want: []SearchQuery{{Text: "Rocky", Year: 1976, Priority: 1}, {Text: "Rocky", Priority: 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Plan(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
			if again := Plan(tt.in); !reflect.DeepEqual(again, got) {
				t.Fatalf("Plan is not deterministic: %+v vs %+v", got, again)
			}
		})
	}
}

func TestCacheKeyNormalizesCaseAndWhitespace(t *testing.T) {
	a := CacheKey(Candidate{Title: "The  Dark Knight", Year: 2008})
	b := CacheKey(Candidate{Title: "the dark knight", Year: 2008, RomanVariant: "x"})
	if a != b || a != "the dark knight|2008" {
		t.Fatalf("unexpected keys %q %q", a, b)
	}
	if got := CacheKey(Candidate{Title: "Heat"}); got != "heat|" {
		t.Fatalf("unexpected key %q", got)
	}
}
