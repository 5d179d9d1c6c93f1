package catalog

import (
	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"
)

// Registry maps item types to their Kind.
type Registry struct {
	kinds map[model.ItemType]Kind
}

// NewRegistry builds a registry from the given kinds. A later kind replaces
// an earlier one of the same type.
func NewRegistry(kinds ...Kind) *Registry {
	r := &Registry{kinds: make(map[model.ItemType]Kind, len(kinds))}
	for _, k := range kinds {
		r.kinds[k.Type()] = k
	}
	return r
}

// NewDefaultRegistry registers attractions, hotel rooms and products backed
// by repo.
func NewDefaultRegistry(repo repository.CatalogRepository) *Registry {
	return NewRegistry(
		NewAttractionKind(repo),
		NewHotelRoomKind(repo),
		NewProductKind(repo),
	)
}

// Kind returns the kind for t, or ErrInvalidRequest if t is not sold.
func (r *Registry) Kind(t model.ItemType) (Kind, error) {
	k, ok := r.kinds[t]
	if !ok {
		return nil, model.ErrInvalidRequest.Withf("unsupported item type %q", t)
	}
	return k, nil
}
