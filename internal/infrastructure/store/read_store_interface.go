package store

// ReadStoreInterface is the projection target: the projector writes device,
// user, session, cart, and request read models through it, and the query
// handler reads them back. Implementations: in-memory ReadStore and
// PostgresReadStore.
type ReadStoreInterface interface {
	// Set stores a read model under collection/id, replacing any previous one.
	Set(collection, id string, data any)

	// Get retrieves a read model by id.
	Get(collection, id string) (any, bool)

	// GetAll retrieves every item in a collection.
	GetAll(collection string) []any

	// Delete removes a read model. Deleting a missing id is a no-op.
	Delete(collection, id string)

	// Update modifies a read model in place via updateFn; reports whether the
	// id existed.
	Update(collection, id string, updateFn func(current any) any) bool
}
