package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		encoded string
		decoded string
	}{
		{
			name:    "scalar",
			opts:    options{value: `2.5`, expand: true},
			encoded: "num(2.5)",
			decoded: "2.5",
		},
		{
			name:    "matrix",
			opts:    options{value: `[[1, 2], [3, 4]]`, expand: true},
			encoded: "multi[2x2]{num(1), num(2); num(3), num(4)}",
			decoded: "[[1,2],[3,4]]",
		},
		{
			name:    "collapsed",
			opts:    options{value: `["a", "b"]`, expand: false},
			encoded: `str("VECTOR")`,
			decoded: `"VECTOR"`,
		},
		{
			name:    "coerced",
			opts:    options{value: `"42"`, as: "long", expand: true},
			encoded: `str("42")`,
			decoded: "42",
		},
		{
			name:    "through memory",
			opts:    options{value: `[true, "x"]`, expand: true, layout: true},
			encoded: `multi[2x1]{bool(true); str("x")}`,
			decoded: `[[true],["x"]]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := inspect(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if r.encoded != tt.encoded {
				t.Errorf("encoded = %s, want %s", r.encoded, tt.encoded)
			}
			if r.decodeErr != nil {
				t.Fatalf("decode: %v", r.decodeErr)
			}
			if strings.ReplaceAll(r.decoded, " ", "") != tt.decoded {
				t.Errorf("decoded = %s, want %s", r.decoded, tt.decoded)
			}
			if r.outstanding != 0 {
				t.Errorf("%d host values outstanding", r.outstanding)
			}
			if tt.opts.layout && len(r.layout) == 0 {
				t.Error("no layout rows")
			}
		})
	}
}

func TestInspect_Errors(t *testing.T) {
	if _, err := inspect(context.Background(), options{value: `{`}); err == nil {
		t.Error("expected parse error")
	}

	r, err := inspect(context.Background(), options{value: `"abc"`, as: "double"})
	if err != nil {
		t.Fatal(err)
	}
	if r.decodeErr == nil || !strings.HasPrefix(r.decodeErr.Error(), "DecodeDouble: ") {
		t.Errorf("decodeErr = %v", r.decodeErr)
	}

	r, err = inspect(context.Background(), options{value: `1`, as: "tensor"})
	if err != nil {
		t.Fatal(err)
	}
	if r.decodeErr == nil {
		t.Error("expected unknown shape error")
	}
}

func TestRun_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, options{value: `[1, 2]`, expand: true, layout: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Error("plain output contains escape sequences")
	}
	for _, want := range []string{"vector<double>", "multi[2x1]", "xloper", "[1][0]", "0 coerced, 0 released"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
