package asset

import "testing"

func TestTagsListsEveryDisposition(t *testing.T) {
	tags := Tags()
	if len(tags) != 3 {
		t.Fatalf("Tags() returned %d entries, want 3", len(tags))
	}

	want := []Tag{TagKeep, TagDelete, TagUnsure}
	for i, tag := range tags {
		if tag != want[i] {
			t.Errorf("Tags()[%d] = %v, want %v", i, tag, want[i])
		}
		if !tag.Valid() {
			t.Errorf("Tags()[%d] = %v is not valid", i, tag)
		}
	}
}

func TestTagTokenRoundTrip(t *testing.T) {
	for _, tag := range Tags() {
		parsed, err := ParseTag(tag.String())
		if err != nil {
			t.Fatalf("ParseTag(%q): %v", tag.String(), err)
		}
		if parsed != tag {
			t.Errorf("ParseTag(%q) = %v, want %v", tag.String(), parsed, tag)
		}
	}
}

func TestParseTagUnknown(t *testing.T) {
	if _, err := ParseTag("maybe"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestInvalidTagString(t *testing.T) {
	if s := Tag(0).String(); s != "tag(0)" {
		t.Errorf("Tag(0).String() = %q", s)
	}
}
