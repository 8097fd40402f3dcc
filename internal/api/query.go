package api

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// RegexFilter narrows one column to values matching Value.
type RegexFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ListQuery is the list request contract.
//
// Page is 1-based. OrderBy/Order are empty when the table is unsorted.
type ListQuery struct {
	Page         int           `json:"page"`
	Per          int           `json:"per"`
	OrderBy      string        `json:"order_by,omitempty"`
	Order        string        `json:"order,omitempty"`
	RegexFilters []RegexFilter `json:"regex_filters,omitempty"`
}

// Values encodes the query. Filters use indexed brackets so their order survives
// url.Values' key sorting: regex_filters[0][field]=code&regex_filters[0][value]=^C.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per", strconv.Itoa(q.Per))
	if q.OrderBy != "" {
		v.Set("order_by", q.OrderBy)
		if q.Order != "" {
			v.Set("order", q.Order)
		}
	}
	for i, f := range q.RegexFilters {
		v.Set(fmt.Sprintf("regex_filters[%d][field]", i), f.Field)
		v.Set(fmt.Sprintf("regex_filters[%d][value]", i), f.Value)
	}
	return v
}

var filterKeyRe = regexp.MustCompile(`^regex_filters\[(\d*)\]\[(field|value)\]$`)

// ParseListQuery decodes what Values encodes. Missing or invalid page/per fall back
// to defaultPer and page 1. Unindexed "regex_filters[][field]" pairs are accepted
// and paired in order of appearance.
func ParseListQuery(v url.Values, defaultPer int) ListQuery {
	q := ListQuery{Page: 1, Per: defaultPer}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("page"))); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("per"))); err == nil && n > 0 {
		q.Per = n
	}
	q.OrderBy = strings.TrimSpace(v.Get("order_by"))
	if q.OrderBy != "" {
		q.Order = OrderAsc
		if strings.EqualFold(strings.TrimSpace(v.Get("order")), OrderDesc) {
			q.Order = OrderDesc
		}
	}

	indexed := map[int]*RegexFilter{}
	var unindexedFields, unindexedValues []string
	for key, vals := range v {
		m := filterKeyRe.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		if m[1] == "" {
			if m[2] == "field" {
				unindexedFields = append(unindexedFields, vals...)
			} else {
				unindexedValues = append(unindexedValues, vals...)
			}
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		f := indexed[idx]
		if f == nil {
			f = &RegexFilter{}
			indexed[idx] = f
		}
		if m[2] == "field" {
			f.Field = vals[0]
		} else {
			f.Value = vals[0]
		}
	}

	idxs := make([]int, 0, len(indexed))
	for i := range indexed {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		if f := indexed[i]; strings.TrimSpace(f.Field) != "" {
			q.RegexFilters = append(q.RegexFilters, *f)
		}
	}
	for i, field := range unindexedFields {
		if strings.TrimSpace(field) == "" {
			continue
		}
		val := ""
		if i < len(unindexedValues) {
			val = unindexedValues[i]
		}
		q.RegexFilters = append(q.RegexFilters, RegexFilter{Field: field, Value: val})
	}
	return q
}
