package catalog

// Product is the catalog entity. Optional attributes are pointers so that an
// absent value is distinguishable from a zero one; list filtering and sorting
// treat absent numerics as 0 and absent strings as "".
type Product struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        *string  `json:"description,omitempty"`
	Price              float64  `json:"price"`
	DiscountPercentage *float64 `json:"discountPercentage,omitempty"`
	Rating             *float64 `json:"rating,omitempty"`
	Stock              *int     `json:"stock,omitempty"`
	Brand              *string  `json:"brand,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Thumbnail          *string  `json:"thumbnail,omitempty"`
	Images             []string `json:"images,omitempty"`
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func intOrZero(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
