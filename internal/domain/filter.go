package domain

// ProductFilter narrows catalog listings. Search matches name, brand or description, case-insensitively.
type ProductFilter struct {
	Category string
	Search   string
	LowStock bool
}
