package hymn

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeIndex(t *testing.T) {
	data := []byte(`[
		{"id": "h001", "title": "Himno Uno", "author": "Autor 1", "file": "h001.json"},
		{"id": "h002", "title": "Himno Dos", "file": "h002.json"}
	]`)
	entries, err := DecodeIndex(data)
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	want := IndexEntry{ID: "h001", Title: "Himno Uno", Author: "Autor 1", File: "h001.json"}
	if entries[0] != want {
		t.Errorf("entries[0] = %+v, want %+v", entries[0], want)
	}
	if entries[1].Author != "" {
		t.Errorf("entries[1].Author = %q, want empty", entries[1].Author)
	}
}

func TestDecodeIndex_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"object instead of array", `{"invalid": true}`},
		{"null", `null`},
		{"empty body", ``},
		{"missing title", `[{"id": "h001", "file": "h001.json"}]`},
		{"empty id", `[{"id": "", "title": "x"}]`},
		{"numeric id", `[{"id": 1, "title": "x"}]`},
		{"empty file", `[{"id": "h1", "title": "x", "file": ""}]`},
		{"null element", `[null]`},
		{"broken json", `[{"id": "h1"`},
		{"upper-case keys", `[{"ID": "h1", "TITLE": "x"}]`},
		{"mixed-case key", `[{"id": "h1", "Title": "x"}]`},
		{"null author", `[{"id": "h1", "title": "x", "author": null}]`},
		{"null file", `[{"id": "h1", "title": "x", "file": null}]`},
		{"duplicate id", `[{"id": "h1", "title": "x"}, {"id": "h1", "title": "y"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeIndex([]byte(tt.data))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if ve.Context != "index" {
				t.Errorf("Context = %q, want index", ve.Context)
			}
		})
	}
}

func TestDecodeHymn(t *testing.T) {
	data := []byte(`{"id":"h001","title":"Himno Uno","author":"Autor 1","content":"Verso 1\nVerso 2","createdAt":"2024-01-15T00:00:00.000Z"}`)
	h, err := DecodeHymn("h001", data)
	if err != nil {
		t.Fatalf("DecodeHymn: %v", err)
	}
	if h.Content != "Verso 1\nVerso 2" {
		t.Errorf("Content = %q", h.Content)
	}
	if h.CreatedAt != "2024-01-15T00:00:00.000Z" {
		t.Errorf("CreatedAt = %q", h.CreatedAt)
	}

	minimal, err := DecodeHymn("h002", []byte(`{"id":"h002","title":"Himno Dos","content":"Solo una línea"}`))
	if err != nil {
		t.Fatalf("DecodeHymn minimal: %v", err)
	}
	if minimal.Author != "" || minimal.CreatedAt != "" {
		t.Errorf("optional fields = %q/%q, want empty", minimal.Author, minimal.CreatedAt)
	}
}

func TestDecodeHymn_MissingContentNamesID(t *testing.T) {
	_, err := DecodeHymn("h001", []byte(`{"id":"h001","title":"Himno Uno"}`))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if !strings.Contains(err.Error(), "h001") {
		t.Errorf("error %q does not mention the record id", err)
	}
}

func TestDecodeHymn_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"array", `[]`},
		{"empty content", `{"id":"h1","title":"t","content":""}`},
		{"bad createdAt", `{"id":"h1","title":"t","content":"c","createdAt":"yesterday"}`},
		{"id mismatch", `{"id":"h9","title":"t","content":"c"}`},
		{"content not string", `{"id":"h1","title":"t","content":{"content":"c"}}`},
		{"case-folded keys", `{"Id":"h1","TITLE":"t","Content":"c"}`},
		{"null author", `{"id":"h1","title":"t","content":"c","author":null}`},
		{"null createdAt", `{"id":"h1","title":"t","content":"c","createdAt":null}`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHymn("h1", []byte(tt.data))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
		})
	}
}

func TestValidateIndex(t *testing.T) {
	if err := ValidateIndex([]IndexEntry{{ID: "1", Title: "a"}}); err != nil {
		t.Errorf("ValidateIndex valid: %v", err)
	}
	if err := ValidateIndex([]IndexEntry{}); err != nil {
		t.Errorf("ValidateIndex empty: %v", err)
	}
	if err := ValidateIndex(nil); err == nil {
		t.Error("ValidateIndex(nil) = nil, want error")
	}
	if err := ValidateIndex([]IndexEntry{{ID: "1"}}); err == nil {
		t.Error("ValidateIndex without title = nil, want error")
	}
	if err := ValidateIndex([]IndexEntry{{ID: "1", Title: "a"}, {ID: "1", Title: "b"}}); err == nil {
		t.Error("ValidateIndex with duplicate ids = nil, want error")
	}
}

func TestDecodeIndex_IgnoresUnknownKeys(t *testing.T) {
	entries, err := DecodeIndex([]byte(`[{"id":"h1","title":"x","tags":["navidad"]}]`))
	if err != nil {
		t.Fatalf("DecodeIndex: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "h1" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject([]byte(`{"id":"a","extra":1}`), "id", "name")
	if err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if _, ok := obj["extra"]; ok {
		t.Error("unknown key kept")
	}
	if v, err := StringMember(obj, "id"); err != nil || v == nil || *v != "a" {
		t.Errorf("StringMember(id) = %v, %v", v, err)
	}
	if v, err := StringMember(obj, "name"); err != nil || v != nil {
		t.Errorf("StringMember(name) = %v, %v, want absent", v, err)
	}

	if _, err := DecodeObject([]byte(`{"Name":"a"}`), "id", "name"); err == nil {
		t.Error("case-folded key accepted")
	}
	if _, err := DecodeObject([]byte(`[]`), "id"); err == nil {
		t.Error("array accepted as object")
	}
}

func TestFindEntry(t *testing.T) {
	index := []IndexEntry{{ID: "h001", Title: "a"}, {ID: "h002", Title: "b"}}
	if e, ok := FindEntry(index, "h002"); !ok || e.Title != "b" {
		t.Errorf("FindEntry(h002) = %+v, %v", e, ok)
	}
	if _, ok := FindEntry(index, "missing-id"); ok {
		t.Error("FindEntry(missing-id) found an entry")
	}
}

func TestParseContent(t *testing.T) {
	body := `VERSO 1:
Sublime gracia del Señor
que a un infeliz salvó

coro:
Estribillo uno
Estribillo dos

Verso 2
Fue la gracia que enseñó
`
	c := ParseContent(body)
	if len(c.Verses) != 2 {
		t.Fatalf("verses = %d, want 2", len(c.Verses))
	}
	if c.Verses[0].Number != 1 || len(c.Verses[0].Lines) != 2 {
		t.Errorf("verse 1 = %+v", c.Verses[0])
	}
	if c.Verses[1].Number != 2 || c.Verses[1].Lines[0] != "Fue la gracia que enseñó" {
		t.Errorf("verse 2 = %+v", c.Verses[1])
	}
	if c.Chorus == nil || strings.Join(c.Chorus.Lines, "\n") != "Estribillo uno\nEstribillo dos" {
		t.Errorf("chorus = %+v", c.Chorus)
	}
	if !c.Valid() {
		t.Error("Valid() = false")
	}
}

func TestParseContent_NoMarkers(t *testing.T) {
	c := ParseContent("just some text\nwithout markers")
	if c.Valid() {
		t.Errorf("Valid() = true for %+v", c)
	}
}

func TestParseContent_EmptySectionDropped(t *testing.T) {
	c := ParseContent("VERSO 1:\n\n   \nCORO:\nla la")
	if len(c.Verses) != 0 {
		t.Errorf("verses = %+v, want none", c.Verses)
	}
	if c.Chorus == nil {
		t.Fatal("chorus missing")
	}
}
