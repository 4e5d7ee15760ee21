package flatlay

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var catalogBucket = []byte("layouts")

// Catalog is a named store of encoded layout descriptors in a Bolt file,
// for keeping several compiled layouts side by side and reloading them by
// name.
type Catalog struct {
	bdb *bbolt.DB
}

func OpenCatalog(path string) (*Catalog, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	bdb, err := bbolt.Open(path, 0600, &bopt)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(catalogBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &Catalog{bdb: bdb}, nil
}

func (c *Catalog) Close() error {
	return c.bdb.Close()
}

// Put stores the encoded descriptor of m under name, replacing any
// previous layout with that name.
func (c *Catalog) Put(name string, m *LayoutMap) error {
	if name == "" {
		return fmt.Errorf("catalog: empty layout name")
	}
	blob := EncodeLayout(m)
	err := c.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(catalogBucket).Put([]byte(name), blob)
	})
	if err != nil {
		return fmt.Errorf("catalog: put %s: %w", name, err)
	}
	return nil
}

// Get decodes the layout stored under name. Returns ErrLayoutNotFound if
// no layout has that name.
func (c *Catalog) Get(name string) (*LayoutMap, error) {
	var blob []byte
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(catalogBucket).Get([]byte(name))
		if raw != nil {
			blob = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", name, err)
	}
	if blob == nil {
		return nil, fmt.Errorf("catalog: %s: %w", name, ErrLayoutNotFound)
	}
	return DecodeLayout(blob)
}

// Names lists the stored layout names in key order.
func (c *Catalog) Names() ([]string, error) {
	var names []string
	err := c.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(catalogBucket).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return names, nil
}
