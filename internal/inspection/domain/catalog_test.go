package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

func TestItemCatalogDefaults(t *testing.T) {
	catalog := domain.NewItemCatalog(nil)
	assert.Equal(t, domain.DefaultItemTypes, catalog.Items())

	item, ok := catalog.Canonical("door   SWEEP")
	assert.True(t, ok)
	assert.Equal(t, "Door Sweep", item)

	_, ok = catalog.Canonical("Flux Capacitor")
	assert.False(t, ok)
}

func TestItemCatalogCustom(t *testing.T) {
	catalog := domain.NewItemCatalog([]string{" Hinge ", "", "hinge", "Latch"})
	assert.Equal(t, []string{"Hinge", "Latch"}, catalog.Items())

	item, ok := catalog.Canonical("HINGE")
	assert.True(t, ok)
	assert.Equal(t, "Hinge", item)

	_, ok = catalog.Canonical("Door Sweep")
	assert.False(t, ok)
}

func TestItemCatalogItemsIsCopy(t *testing.T) {
	catalog := domain.NewItemCatalog([]string{"Hinge"})
	items := catalog.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"Hinge"}, catalog.Items())
}
