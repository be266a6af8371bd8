package catalog

import (
	"sort"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// QueryParams are the list-endpoint parameters. Pointer fields distinguish
// "absent" from a zero value; absent means the corresponding filter is off.
type QueryParams struct {
	Q        string
	Title    string
	Brand    string
	Category string

	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	InStock   *bool

	SortBy string
	Order  string

	Page     *int
	PageSize *int
}

type Result struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Items    []Product `json:"items"`
}

// Search filters, sorts and paginates a product snapshot. It is a pure
// function: no input combination errors, out-of-range parameters are clamped,
// and identical inputs always produce identical output.
func Search(items []Product, p QueryParams) Result {
	out := filterSearchTerm(items, p.Q)
	out = filterFieldSets(out, p)
	out = filterRanges(out, p)

	total := len(out)

	sortProducts(out, p.SortBy, p.Order)

	page, pageSize := clampPaging(p.Page, p.PageSize)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return Result{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    out[start:end],
	}
}

func filterSearchTerm(items []Product, q string) []Product {
	term := strings.TrimSpace(q)
	if term == "" {
		// copy so sorting never reorders the caller's slice
		return append([]Product(nil), items...)
	}

	term = strings.ToLower(term)
	out := make([]Product, 0, len(items))
	for _, p := range items {
		if containsFold(p.Title, term) ||
			containsFold(strOrEmpty(p.Brand), term) ||
			containsFold(strOrEmpty(p.Description), term) ||
			containsFold(strOrEmpty(p.Category), term) {
			out = append(out, p)
		}
	}
	return out
}

func containsFold(s, lowerTerm string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

func filterFieldSets(items []Product, p QueryParams) []Product {
	if set := csvSet(p.Title); set != nil {
		items = keep(items, func(p Product) bool {
			return set[strings.ToLower(p.Title)]
		})
	}
	if set := csvSet(p.Brand); set != nil {
		items = keep(items, func(p Product) bool {
			return p.Brand != nil && set[strings.ToLower(*p.Brand)]
		})
	}
	if set := csvSet(p.Category); set != nil {
		items = keep(items, func(p Product) bool {
			return p.Category != nil && set[strings.ToLower(*p.Category)]
		})
	}
	return items
}

// csvSet splits a comma-separated filter into a lowercased set. A blank filter
// yields nil, meaning "no restriction".
func csvSet(s string) map[string]bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	set := make(map[string]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			set[tok] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func filterRanges(items []Product, p QueryParams) []Product {
	if p.MinPrice != nil {
		items = keep(items, func(pr Product) bool { return pr.Price >= *p.MinPrice })
	}
	if p.MaxPrice != nil {
		items = keep(items, func(pr Product) bool { return pr.Price <= *p.MaxPrice })
	}
	if p.MinRating != nil {
		items = keep(items, func(pr Product) bool { return floatOrZero(pr.Rating) >= *p.MinRating })
	}
	if p.InStock != nil {
		want := *p.InStock
		items = keep(items, func(pr Product) bool {
			in := intOrZero(pr.Stock) > 0
			return in == want
		})
	}
	return items
}

func keep(items []Product, pred func(Product) bool) []Product {
	n := 0
	for _, p := range items {
		if pred(p) {
			items[n] = p
			n++
		}
	}
	return items[:n]
}

// sortProducts orders in place. Unknown sort keys fall back to id; absent
// values compare as the type's zero so ordering stays deterministic. The sort
// is stable, so equal keys keep ascending-id order from the snapshot.
func sortProducts(items []Product, sortBy, order string) {
	key := strings.ToLower(strings.TrimSpace(sortBy))
	desc := strings.EqualFold(order, "desc")

	var less func(a, b Product) bool
	switch key {
	case "title":
		less = func(a, b Product) bool { return a.Title < b.Title }
	case "price":
		less = func(a, b Product) bool { return a.Price < b.Price }
	case "rating":
		less = func(a, b Product) bool { return floatOrZero(a.Rating) < floatOrZero(b.Rating) }
	case "brand":
		less = func(a, b Product) bool { return strOrEmpty(a.Brand) < strOrEmpty(b.Brand) }
	case "stock":
		less = func(a, b Product) bool { return intOrZero(a.Stock) < intOrZero(b.Stock) }
	case "discount":
		less = func(a, b Product) bool {
			return floatOrZero(a.DiscountPercentage) < floatOrZero(b.DiscountPercentage)
		}
	case "category":
		less = func(a, b Product) bool { return strOrEmpty(a.Category) < strOrEmpty(b.Category) }
	default:
		less = func(a, b Product) bool { return a.ID < b.ID }
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func clampPaging(page, pageSize *int) (int, int) {
	p := 1
	if page != nil {
		p = *page
	}
	ps := defaultPageSize
	if pageSize != nil {
		ps = *pageSize
	}

	if p < 1 {
		p = 1
	}
	if ps < 1 {
		ps = defaultPageSize
	}
	if ps > maxPageSize {
		ps = maxPageSize
	}
	return p, ps
}
