package paginate

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 5, 0},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{12, 5, 3},
		{12, 0, 3},
		{2, math.MaxInt, 1},
		{math.MaxInt, 2, math.MaxInt/2 + 1},
		{math.MaxInt, math.MaxInt, 1},
	}
	for _, tt := range tests {
		if got := PageCount(tt.n, tt.size); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestPaginateHugePageSize(t *testing.T) {
	p := Paginate([]int{1, 2}, math.MaxInt, 3)
	if p.Count != 1 || p.Number != 1 || p.Start != 1 || p.End != 2 || len(p.Items) != 2 {
		t.Fatalf("page = %+v", p)
	}
}

func TestPagesConcatenateToInput(t *testing.T) {
	for n := 0; n <= 23; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for _, size := range []int{1, 3, 5, 7} {
			var got []int
			for p := 1; p <= PageCount(n, size); p++ {
				page := Paginate(items, size, p)
				if len(page.Items) == 0 || len(page.Items) > size {
					t.Fatalf("n=%d size=%d page=%d has %d items", n, size, p, len(page.Items))
				}
				got = append(got, page.Items...)
			}
			if diff := cmp.Diff(items, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("n=%d size=%d concat mismatch (-want +got):\n%s", n, size, diff)
			}
		}
	}
}

func TestPaginateClamps(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantItems []string
	}{
		{"zero goes to first", 0, 1, []string{"a", "b", "c", "d", "e"}},
		{"negative goes to first", -3, 1, []string{"a", "b", "c", "d", "e"}},
		{"second", 2, 2, []string{"f", "g"}},
		{"past the end goes to last", 9, 2, []string{"f", "g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(items, 5, tt.page)
			if p.Number != tt.wantPage {
				t.Fatalf("Number = %d, want %d", p.Number, tt.wantPage)
			}
			if diff := cmp.Diff(tt.wantItems, p.Items); diff != "" {
				t.Fatalf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]int{}, 5, 4)
	if p.Number != 1 || p.Count != 0 || len(p.Items) != 0 || p.Start != 0 || p.End != 0 {
		t.Fatalf("Paginate(empty) = %+v", p)
	}
}

func TestPaginateRange(t *testing.T) {
	p := Paginate([]int{1, 2, 3, 4, 5, 6, 7}, 5, 2)
	if p.Start != 6 || p.End != 7 || p.Total != 7 || p.Count != 2 {
		t.Fatalf("Paginate range = %+v", p)
	}
}

func TestCursorResetsOnNewRecordSet(t *testing.T) {
	first := []string{"Lisbon", "Porto"}
	c := Cursor{}.For(first)
	if c.Page != 1 || c.Fingerprint == "" {
		t.Fatalf("initial cursor = %+v", c)
	}
	c.Page = 3
	if got := c.For(first); got.Page != 3 {
		t.Fatalf("same set moved cursor to %d", got.Page)
	}
	if got := c.For([]string{"Madrid"}); got.Page != 1 {
		t.Fatalf("new set kept page %d, want 1", got.Page)
	}
}

