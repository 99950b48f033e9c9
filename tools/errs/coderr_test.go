package errs

import (
	"errors"
	"testing"
)

func TestCodeExtraction(t *testing.T) {
	if got := Code(nil); got != NoErr {
		t.Fatalf("Code(nil) = %d", got)
	}
	if got := Code(ErrRoomNotFound); got != ErrInvalidChatroom {
		t.Fatalf("Code = %d, want %d", got, ErrInvalidChatroom)
	}
	if got := Code(New("plain")); got != ErrUnknown {
		t.Fatalf("unclassified error code = %d, want %d", got, ErrUnknown)
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := Wrap(ErrToken, "gate rejected")
	err = WrapMsg(err, "handshake", "remote", "10.0.0.1")
	if got := Code(err); got != ErrInvalidAccessToken {
		t.Fatalf("wrapped code = %d, want %d", got, ErrInvalidAccessToken)
	}
}

func TestWithDetailCopies(t *testing.T) {
	detailed := ErrRoomNotFound.WithDetail("id=abc")
	if detailed == ErrRoomNotFound {
		t.Fatalf("WithDetail must not mutate the shared value")
	}
	if ErrRoomNotFound.Detail != "" {
		t.Fatalf("shared error gained detail %q", ErrRoomNotFound.Detail)
	}
	if detailed.Code != ErrRoomNotFound.Code {
		t.Fatalf("detail copy changed the code")
	}
	if !errors.Is(detailed, ErrRoomNotFound) {
		t.Fatalf("detailed copy must still match by code")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "noop") != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
	if WrapMsg(nil, "noop", "k", "v") != nil {
		t.Fatalf("WrapMsg(nil) must stay nil")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	if !errors.Is(ErrNotAMember, ErrRoomNotFound) {
		t.Fatalf("same wire code must match")
	}
	if errors.Is(ErrRoomNotFound, ErrToken) {
		t.Fatalf("different wire codes must not match")
	}
}
