package filterstore

// NopMetaStore is a MetaStore that remembers nothing. Every fetch becomes
// unconditional.
type NopMetaStore struct{}

func (NopMetaStore) Get(string) (SourceMeta, bool, error) { return SourceMeta{}, false, nil }

func (NopMetaStore) Put(string, SourceMeta) error { return nil }

func (NopMetaStore) Delete(string) error { return nil }

func (NopMetaStore) Close() error { return nil }

var _ MetaStore = NopMetaStore{}
