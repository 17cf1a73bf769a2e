package bot

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/polybotservice/polybot/internal/imgproc"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		caption string
		want    Command
		ok      bool
	}{
		{"Salt and pepper", CommandSaltAndPepper, true},
		{"Segment", CommandSegment, true},
		{"Contour", CommandContour, true},
		{"Blur", CommandBlur, true},
		{"Concat", CommandConcat, true},
		{"Rotate", CommandRotate, true},
		{"blur", "", false},
		{"Blur ", "", false},
		{"salt and pepper", "", false},
		{"", "", false},
		{"Sharpen", "", false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%q", tc.caption), func(t *testing.T) {
			t.Parallel()
			got, ok := ParseCommand(tc.caption)
			if got != tc.want || ok != tc.ok {
				t.Errorf("ParseCommand(%q) = (%q, %v), want (%q, %v)", tc.caption, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestCommands_AllParse(t *testing.T) {
	t.Parallel()
	for _, c := range Commands() {
		if got, ok := ParseCommand(string(c)); !ok || got != c {
			t.Errorf("ParseCommand(%q) = (%q, %v)", c, got, ok)
		}
	}
}

func TestReplyFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no photo", ErrNoPhoto, ReplyMissingData},
		{"wrapped no photo", fmt.Errorf("x: %w", ErrNoPhoto), ReplyMissingData},
		{"missing file", &imgproc.DecodeError{Path: "a.png", Err: fs.ErrNotExist}, ReplyFileNotFound},
		{"dimension mismatch", &imgproc.DimensionMismatchError{Op: "concat", Axis: "height", Want: 2, Got: 3}, ReplyUnexpected},
		{"kernel", imgproc.ErrInvalidKernel, ReplyUnexpected},
		{"other", errors.New("boom"), ReplyUnexpected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := replyFor(tc.err); got != tc.want {
				t.Errorf("replyFor(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestMessage_Kind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  Message
		want string
	}{
		{Message{Photo: &Photo{}}, "photo"},
		{Message{Photo: &Photo{}, Text: "x"}, "photo"},
		{Message{Text: "hi"}, "text"},
		{Message{}, "other"},
	}
	for _, tc := range tests {
		if got := tc.msg.Kind(); got != tc.want {
			t.Errorf("Kind() = %q, want %q", got, tc.want)
		}
	}
}
