// Package asset defines the identifiers and dispositions shared by the
// triage engine. An asset is one photo in the library; its ID is opaque
// and stable, sourced from the library layer and never generated here.
package asset

import "fmt"

// ID identifies one photo in the library. IDs are unique across a
// library and stable for the lifetime of the underlying item.
type ID string

// Tag is the triage disposition assigned to an asset. An asset has at
// most one tag at a time; "untagged" is modeled as the absence of an
// entry, never as a zero-valued tag.
type Tag uint8

const (
	TagKeep Tag = iota + 1
	TagDelete
	TagUnsure
)

// Tag string tokens as persisted on disk and shown in the CLI.
const (
	tokenKeep   = "keep"
	tokenDelete = "delete"
	tokenUnsure = "unsure"
)

// String returns the stable string token for the tag.
func (t Tag) String() string {
	switch t {
	case TagKeep:
		return tokenKeep
	case TagDelete:
		return tokenDelete
	case TagUnsure:
		return tokenUnsure
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Valid reports whether t is one of the three defined dispositions.
func (t Tag) Valid() bool {
	return t == TagKeep || t == TagDelete || t == TagUnsure
}

// ParseTag converts a string token to a Tag.
func ParseTag(s string) (Tag, error) {
	switch s {
	case tokenKeep:
		return TagKeep, nil
	case tokenDelete:
		return TagDelete, nil
	case tokenUnsure:
		return TagUnsure, nil
	default:
		return 0, fmt.Errorf("unknown tag %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tag value %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(data []byte) error {
	parsed, err := ParseTag(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Tags lists all defined dispositions in display order.
func Tags() []Tag {
	return []Tag{TagKeep, TagDelete, TagUnsure}
}
