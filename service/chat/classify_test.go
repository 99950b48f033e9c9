package chat

import (
	"testing"

	"ChatRelay/module/message/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		image   string
		want    int32
		command bool
	}{
		{"plain text", "hello there", "", model.TypeText, false},
		{"command", "/stock AAPL", "", model.TypeCommand, true},
		{"command beats link", "/stock http://x", "", model.TypeCommand, true},
		{"http link", "http://example.com/a", "", model.TypeLink, false},
		{"https link", "https://example.com", "", model.TypeLink, false},
		{"ftp link", "ftp://files.example.com/a", "", model.TypeLink, false},
		{"embedded url stays text", "see http://example.com", "", model.TypeText, false},
		{"trailing scheme stays text", "what is https really", "", model.TypeText, false},
		{"image only", "", "blob://cafebabe", model.TypeImage, false},
		{"image with caption stays text", "look", "blob://cafebabe", model.TypeText, false},
		{"empty everything", "", "", model.TypeText, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, command := Classify(tc.body, tc.image)
			if got != tc.want || command != tc.command {
				t.Fatalf("Classify(%q, %q) = (%d, %v), want (%d, %v)",
					tc.body, tc.image, got, command, tc.want, tc.command)
			}
		})
	}
}
