package api

import (
	"net/url"
	"reflect"
	"testing"
)

func TestListQueryValues_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    ListQuery
	}{
		{name: "paging only", q: ListQuery{Page: 1, Per: 20}},
		{name: "sorted", q: ListQuery{Page: 3, Per: 10, OrderBy: "code", Order: OrderAsc}},
		{
			name: "filters keep order past ten",
			q: ListQuery{Page: 1, Per: 5, RegexFilters: []RegexFilter{
				{Field: "f0", Value: "0"}, {Field: "f1", Value: "1"}, {Field: "f2", Value: "2"},
				{Field: "f3", Value: "3"}, {Field: "f4", Value: "4"}, {Field: "f5", Value: "5"},
				{Field: "f6", Value: "6"}, {Field: "f7", Value: "7"}, {Field: "f8", Value: "8"},
				{Field: "f9", Value: "9"}, {Field: "f10", Value: "10"},
			}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseListQuery(tt.q.Values(), 99)
			if !reflect.DeepEqual(got, tt.q) {
				t.Fatalf("round trip:\n got: %#v\nwant: %#v", got, tt.q)
			}
		})
	}
}

func TestParseListQuery_Defaults(t *testing.T) {
	t.Parallel()

	got := ParseListQuery(url.Values{"page": {"-1"}, "per": {"x"}, "order_by": {"name"}, "order": {"sideways"}}, 20)
	want := ListQuery{Page: 1, Per: 20, OrderBy: "name", Order: OrderAsc}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseListQuery_UnindexedFilters(t *testing.T) {
	t.Parallel()

	v, err := url.ParseQuery("regex_filters[][field]=code&regex_filters[][value]=^C&regex_filters[][field]=name&regex_filters[][value]=D")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := ParseListQuery(v, 20).RegexFilters
	want := []RegexFilter{{Field: "code", Value: "^C"}, {Field: "name", Value: "D"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}
