package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current collection schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchema = []byte("schema")

// ErrNewerSchema is returned for collections written by a newer release.
var ErrNewerSchema = errors.New("collection created by a newer version")

// SchemaInfo is stored once per collection. Dimension is zero until the
// first insert establishes it.
type SchemaInfo struct {
	Version   int       `json:"version"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func readSchema(meta *bbolt.Bucket) (*SchemaInfo, error) {
	var info SchemaInfo
	data := meta.Get(keySchema)
	if data == nil {
		return nil, fmt.Errorf("collection schema missing")
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("corrupt collection schema: %w", err)
	}
	if info.Version > CurrentSchemaVersion {
		return nil, fmt.Errorf("%w (v%d > v%d)", ErrNewerSchema, info.Version, CurrentSchemaVersion)
	}
	return &info, nil
}

// checkSchemas refuses a database holding any collection with a newer
// schema version.
func checkSchemas(tx *bbolt.Tx) error {
	return tx.ForEach(func(name []byte, root *bbolt.Bucket) error {
		collection, ok := strings.CutPrefix(string(name), collectionPrefix)
		if !ok {
			return nil
		}
		meta := root.Bucket(bucketMeta)
		if meta == nil {
			return nil
		}
		if _, err := readSchema(meta); errors.Is(err, ErrNewerSchema) {
			return fmt.Errorf("collection %s: %w", collection, err)
		}
		return nil
	})
}

func writeSchema(meta *bbolt.Bucket, info *SchemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return meta.Put(keySchema, data)
}
