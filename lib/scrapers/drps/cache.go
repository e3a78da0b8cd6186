package drps

import (
	"bytes"
	"encoding/gob"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
)

var errPageNotFound = badger.ErrKeyNotFound

// how long a fetched page stays replayable
const pageLifetime = int64((time.Hour / time.Second) * 24)

type cachedPage struct {
	Contents  []byte
	ExpiresAt int64
}

// pageCache stores raw page bytes keyed by normalized URL, so a crawl can be
// replayed offline against pages fetched earlier.
type pageCache struct {
	db *badger.DB
}

func (c *pageCache) key(pageUrl string) (string, error) {
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|purell.FlagsUsuallySafeNonGreedy,
	), nil
}

func (c *pageCache) get(pageUrl string) ([]byte, error) {
	key, err := c.key(pageUrl)
	if err != nil {
		return nil, err
	}

	var page cachedPage
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewBuffer(val)).Decode(&page)
		})
	})
	if err != nil {
		return nil, err
	}

	if page.ExpiresAt < time.Now().Unix() {
		return nil, errPageNotFound
	}
	return page.Contents, nil
}

func (c *pageCache) set(pageUrl string, contents []byte) error {
	key, err := c.key(pageUrl)
	if err != nil {
		return err
	}

	buffer := bytes.Buffer{}
	err = gob.NewEncoder(&buffer).Encode(cachedPage{
		Contents:  contents,
		ExpiresAt: time.Now().Unix() + pageLifetime,
	})
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), buffer.Bytes())
	})
}
