package pagination

import (
	"errors"
	"testing"
)

type row struct{ id string }

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-01-02T03:04:05Z"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cursor, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cursor.ID != "42" || cursor.CreatedAt != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected cursor %+v", cursor)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("%%%"); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
	cursor, err := DecodeCursor("")
	if err != nil || cursor != nil {
		t.Fatalf("empty token should mean first page, got %v %v", cursor, err)
	}
}

func TestBuildCursorPageInfoTrimsProbeRow(t *testing.T) {
	data := []*row{{"a"}, {"b"}, {"c"}}
	page, info, err := BuildCursorPageInfo(data, 2, func(r *row) Cursor {
		return Cursor{ID: r.id, CreatedAt: "t"}
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(page) != 2 || !info.HasMore || info.NextPageToken == "" {
		t.Fatalf("unexpected page %d %+v", len(page), info)
	}
	next, _ := DecodeCursor(info.NextPageToken)
	if next.ID != "b" {
		t.Fatalf("cursor should point at last returned row, got %s", next.ID)
	}

	page, info, _ = BuildCursorPageInfo(data, 5, func(r *row) Cursor { return Cursor{} })
	if len(page) != 3 || info.HasMore {
		t.Fatalf("short page must not report more")
	}
}
