/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package global

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestToolErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ToolError
		want []string
	}{
		{
			name: "kind and message",
			err:  NewError(KindNoMatch, "no match found"),
			want: []string{"NoMatch: no match found"},
		},
		{
			name: "formatted",
			err:  Errorf(KindTooLarge, "file is %d bytes", 500),
			want: []string{"TooLarge: file is 500 bytes"},
		},
		{
			name: "problems listed",
			err:  &ToolError{Kind: KindSchemaValidation, Message: "invalid arguments", Problems: []string{"path: required", "command: invalid"}},
			want: []string{"SchemaValidation", "- path: required", "- command: invalid"},
		},
		{
			name: "wrapped cause",
			err:  WrapIO("/tmp/x", "write", os.ErrPermission),
			want: []string{"IOError: failed to write '/tmp/x'", "permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("Error() = %q, want to contain %q", msg, w)
				}
			}
		})
	}
}

func TestWrapIOUnwraps(t *testing.T) {
	err := WrapIO("/tmp/x", "read", os.ErrNotExist)
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is(WrapIO(..., ErrNotExist), ErrNotExist) = false, want true")
	}
	if err.Path != "/tmp/x" {
		t.Errorf("Path = %q, want %q", err.Path, "/tmp/x")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
	if got := KindOf(NewError(KindNoHistory, "x")); got != KindNoHistory {
		t.Errorf("KindOf() = %q, want %q", got, KindNoHistory)
	}
	wrapped := fmt.Errorf("outer: %w", NewError(KindAccessDenied, "denied"))
	if got := KindOf(wrapped); got != KindAccessDenied {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindAccessDenied)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindInternal)
	}
}

func TestAsToolError(t *testing.T) {
	if AsToolError(nil) != nil {
		t.Error("AsToolError(nil) should be nil")
	}
	te := AsToolError(errors.New("boom"))
	if te.Kind != KindInternal {
		t.Errorf("Kind = %q, want %q", te.Kind, KindInternal)
	}
	orig := NewError(KindNotFound, "gone").WithPath("/a").WithField("path")
	if got := AsToolError(orig); got != orig {
		t.Error("AsToolError() should return the same ToolError")
	}
	if orig.Field != "path" || orig.Path != "/a" {
		t.Errorf("WithField/WithPath not applied: %+v", orig)
	}
}
