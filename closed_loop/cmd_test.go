package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log", "error"}, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestShapesCommand(t *testing.T) {
	out := execute(t, "shapes", "--shape", "trapezoid", "--params", "-15,10,40")
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 256 {
		t.Fatalf("got %d lines, want header plus 255 samples", len(lines))
	}
	want := map[int]string{
		0:   "in\tout",
		1:   "-127\t0",
		98:  "-30\t212",
		113: "-15\t255",
		255: "127\t0",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

func TestSweepCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output_int.txt")
	execute(t, "sweep", "-o", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 62 {
		t.Fatalf("got %d lines, want header plus 61 rows", len(lines))
	}
	header := strings.Split(lines[0], "\t")
	if len(header) != 53 || header[1] != "-250" || header[51] != "250" || header[52] != "" {
		t.Errorf("header = %q", lines[0])
	}
	// row for angle 0: far right turns hard left, far left hard right
	row := strings.Split(lines[31], "\t")
	if diff := cmp.Diff([]string{"0", "25"}, row[:2]); diff != "" {
		t.Errorf("angle 0 row start mismatch (-want +got):\n%s", diff)
	}
	if row[26] != "0" || row[51] != "-25" {
		t.Errorf("angle 0 row: distance 0 -> %s, distance 250 -> %s; want 0 and -25", row[26], row[51])
	}
}

func TestTablesCommand(t *testing.T) {
	out := execute(t, "tables")
	for _, name := range []string{"error_rate", "line_follow"} {
		if !strings.Contains(out, name) {
			t.Errorf("tables output missing %s:\n%s", name, out)
		}
	}
}

func TestBench(t *testing.T) {
	_, table, err := loadTable(defaultTable)
	if err != nil {
		t.Fatal(err)
	}
	res := bench(table, 1000, 7)
	if res.Count+res.Overflow != 1000 {
		t.Errorf("recorded %d + %d overflow, want 1000", res.Count, res.Overflow)
	}
	if res.P50 > res.P99 || res.P99 > res.Max {
		t.Errorf("percentiles out of order: %+v", res)
	}
	if again := bench(table, 1000, 7); again.Checksum != res.Checksum {
		t.Errorf("checksum %d != %d for the same seed", again.Checksum, res.Checksum)
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in       string
		num, den int
		wantErr  bool
	}{
		{"1/2", 1, 2, false},
		{"3", 3, 1, false},
		{" -5 / 4 ", -5, 4, false},
		{"1/0", 0, 0, true},
		{"x/2", 0, 0, true},
	}
	for _, tt := range tests {
		num, den, err := parseRatio(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRatio(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if num != tt.num || den != tt.den {
			t.Errorf("parseRatio(%q) = %d/%d, want %d/%d", tt.in, num, den, tt.num, tt.den)
		}
	}
}
