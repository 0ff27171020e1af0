// Package allowlist reads the JSON document naming the identities accessctl
// may grant or revoke access for.
//
// The document has the shape
//
//	{"access_list": [{"name": "arn:aws:iam::123456789012:user/alice"}, ...]}
//
// Only the name field of each entry is used.
package allowlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnavailable wraps every failure to fetch, decode or parse the document.
var ErrUnavailable = errors.New("allow-list unavailable")

type Entry struct {
	Name string `json:"name"`
}

type List []Entry

type document struct {
	AccessList []json.RawMessage `json:"access_list"`
}

// ObjectGetter reads raw object bytes from object storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key, region string) ([]byte, error)
}

// Fetch reads and parses the allow-list at s3://bucket/key.
func Fetch(ctx context.Context, getter ObjectGetter, bucket, key, region string) (List, error) {
	data, err := getter.GetObject(ctx, bucket, key, region)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
	}
	return list, nil
}

// Parse decodes an allow-list document. A missing or null access_list is an
// empty list. Every entry must be an object; an entry whose name is missing or
// not a string is kept with an empty name.
func Parse(data []byte) (List, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: document is not valid UTF-8", ErrUnavailable)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing JSON: %w", ErrUnavailable, err)
	}

	list := make(List, 0, len(doc.AccessList))
	for i, raw := range doc.AccessList {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: access_list[%d] is not an object", ErrUnavailable, i)
		}

		var name string
		_ = json.Unmarshal(fields["name"], &name) // non-string names stay empty
		list = append(list, Entry{Name: name})
	}
	return list, nil
}

// Contains reports whether identity exactly matches the name of some entry.
// An empty identity matches nothing, so entries whose name is missing, null,
// non-string or "" never match.
func (l List) Contains(identity string) bool {
	if identity == "" {
		return false
	}
	for _, e := range l {
		if e.Name == identity {
			return true
		}
	}
	return false
}
