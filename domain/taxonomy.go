package domain

import (
	"fmt"
	"time"
)

// TaxonomyKind distinguishes the two named-entity collections a task can reference.
type TaxonomyKind uint8

const (
	KindCategory TaxonomyKind = iota + 1
	KindTag
)

func (k TaxonomyKind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindTag:
		return "tag"
	default:
		return fmt.Sprintf("TaxonomyKind(%d)", uint8(k))
	}
}

func (k TaxonomyKind) Valid() bool {
	switch k {
	case KindCategory, KindTag:
		return true
	default:
		return false
	}
}

// TaxonomyItem is a category or tag. Names are matched exactly (case-sensitive).
type TaxonomyItem struct {
	ID        string       `json:"id"`
	Kind      TaxonomyKind `json:"-"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"-"`

	// Provisioned marks items created by find-or-create; only these carry the
	// per-name uniqueness guarantee.
	Provisioned bool `json:"-"`
}
