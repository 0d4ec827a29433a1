package hymn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	entryKeys = []string{"id", "title", "author", "file"}
	hymnKeys  = []string{"id", "title", "author", "content", "createdAt"}
)

// DecodeIndex parses and validates a manifest: a JSON array of index entries.
func DecodeIndex(data []byte) ([]IndexEntry, error) {
	if !startsWith(data, '[') {
		return nil, &ValidationError{Context: "index", Err: errors.New("expected a JSON array")}
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &ValidationError{Context: "index", Err: err}
	}

	entries := make([]IndexEntry, 0, len(raws))
	for i, raw := range raws {
		e, err := decodeEntry(raw)
		if err == nil {
			err = checkEntry(e)
		}
		if err != nil {
			return nil, &ValidationError{Context: "index", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		entries = append(entries, e)
	}
	if err := checkUnique(entries); err != nil {
		return nil, &ValidationError{Context: "index", Err: err}
	}
	return entries, nil
}

func decodeEntry(raw json.RawMessage) (IndexEntry, error) {
	obj, err := DecodeObject(raw, entryKeys...)
	if err != nil {
		return IndexEntry{}, err
	}
	var e IndexEntry
	for key, dst := range map[string]*string{"id": &e.ID, "title": &e.Title, "author": &e.Author, "file": &e.File} {
		v, err := StringMember(obj, key)
		if err != nil {
			return IndexEntry{}, err
		}
		if v != nil {
			*dst = *v
		}
	}
	if _, ok := obj["file"]; ok && e.File == "" {
		return IndexEntry{}, errors.New("file must not be empty")
	}
	return e, nil
}

// ValidateIndex checks already-typed entries, e.g. ones mapped from a REST
// response or read back from a cache.
func ValidateIndex(entries []IndexEntry) error {
	if entries == nil {
		return &ValidationError{Context: "index", Err: errors.New("missing entries")}
	}
	for i, e := range entries {
		if err := checkEntry(e); err != nil {
			return &ValidationError{Context: "index", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
	}
	if err := checkUnique(entries); err != nil {
		return &ValidationError{Context: "index", Err: err}
	}
	return nil
}

// DecodeHymn parses and validates a full record. When id is not empty the
// record must carry that id.
func DecodeHymn(id string, data []byte) (*Hymn, error) {
	ctxName := "hymn " + id
	if !startsWith(data, '{') {
		return nil, &ValidationError{Context: ctxName, Err: errors.New("expected a JSON object")}
	}
	h, err := decodeHymn(data)
	if err == nil {
		err = checkHymn(h)
	}
	if err != nil {
		return nil, &ValidationError{Context: ctxName, Err: err}
	}
	if id != "" && h.ID != id {
		return nil, &ValidationError{Context: ctxName, Err: fmt.Errorf("record carries id %q", h.ID)}
	}
	return h, nil
}

func decodeHymn(data []byte) (*Hymn, error) {
	obj, err := DecodeObject(data, hymnKeys...)
	if err != nil {
		return nil, err
	}
	h := &Hymn{}
	for key, dst := range map[string]*string{
		"id": &h.ID, "title": &h.Title, "author": &h.Author, "content": &h.Content, "createdAt": &h.CreatedAt,
	} {
		v, err := StringMember(obj, key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*dst = *v
		}
	}
	if _, ok := obj["createdAt"]; ok && h.CreatedAt == "" {
		return nil, errors.New("createdAt must not be empty")
	}
	return h, nil
}

// DecodeObject splits a JSON object into the members named by keys. Key
// matching is exact: a member whose key equals one of keys only when case is
// ignored is an error. Members with other keys are dropped.
func DecodeObject(data []byte, keys ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, errors.New("expected a JSON object")
	}
	if all == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	out := make(map[string]json.RawMessage, len(keys))
	for k, v := range all {
		for _, want := range keys {
			if k == want {
				out[k] = v
				break
			}
			if strings.EqualFold(k, want) {
				return nil, fmt.Errorf("unexpected key %q, want %q", k, want)
			}
		}
	}
	return out, nil
}

// StringMember returns the string member key of obj, or nil when absent.
// An explicit null or a non-string value is an error.
func StringMember(obj map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	if IsNull(raw) {
		return nil, fmt.Errorf("%s must not be null", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s must be a string", key)
	}
	return &s, nil
}

// IsNull reports whether raw is the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ValidateHymn checks an already-typed record.
func ValidateHymn(h *Hymn) error {
	if h == nil {
		return &ValidationError{Context: "hymn", Err: errors.New("missing record")}
	}
	if err := checkHymn(h); err != nil {
		return &ValidationError{Context: "hymn " + h.ID, Err: err}
	}
	return nil
}

func checkEntry(e IndexEntry) error {
	if e.ID == "" {
		return errors.New("id must not be empty")
	}
	if e.Title == "" {
		return errors.New("title must not be empty")
	}
	return nil
}

func checkUnique(entries []IndexEntry) error {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if j, dup := seen[e.ID]; dup {
			return fmt.Errorf("entry %d: duplicate id %q (first at entry %d)", i, e.ID, j)
		}
		seen[e.ID] = i
	}
	return nil
}

func checkHymn(h *Hymn) error {
	if h.ID == "" {
		return errors.New("id must not be empty")
	}
	if h.Title == "" {
		return errors.New("title must not be empty")
	}
	if h.Content == "" {
		return errors.New("content must not be empty")
	}
	if h.CreatedAt != "" {
		if _, err := time.Parse(time.RFC3339, h.CreatedAt); err != nil {
			return fmt.Errorf("createdAt is not an ISO-8601 datetime: %w", err)
		}
	}
	return nil
}

func startsWith(data []byte, c byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == c
}
