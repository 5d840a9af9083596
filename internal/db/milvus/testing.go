package milvus

// NewStoreForTest builds a Store over a fake client.
func NewStoreForTest(c client) *Store {
	return newStore(c)
}
