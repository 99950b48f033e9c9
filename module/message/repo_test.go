package message

import (
	"testing"
)

func TestHistoryOptionsDefaults(t *testing.T) {
	opts := HistoryOptions(0, 0, 50)
	if opts.Limit == nil || *opts.Limit != 50 {
		t.Fatalf("unset limit must fall back to the default page")
	}
	if opts.Skip != nil {
		t.Fatalf("zero skip must stay unset")
	}
}

func TestHistoryOptionsExplicit(t *testing.T) {
	opts := HistoryOptions(100, 25, 50)
	if opts.Skip == nil || *opts.Skip != 100 {
		t.Fatalf("skip not applied: %+v", opts.Skip)
	}
	if opts.Limit == nil || *opts.Limit != 25 {
		t.Fatalf("limit not applied: %+v", opts.Limit)
	}
}

func TestHistoryOptionsNegativeLimit(t *testing.T) {
	opts := HistoryOptions(0, -1, 50)
	if opts.Limit == nil || *opts.Limit != 50 {
		t.Fatalf("negative limit must fall back to the default page")
	}
}

func TestHistoryOptionsNewestFirst(t *testing.T) {
	opts := HistoryOptions(0, 10, 50)
	if opts.Sort == nil {
		t.Fatalf("history must be sorted")
	}
}
