package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"YML", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"cgf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatFlagValue(t *testing.T) {
	var f Format
	if f.String() != "yaml" {
		t.Errorf("zero value String() = %q", f.String())
	}
	if err := f.Set("json"); err != nil || f != FormatJSON {
		t.Fatalf("Set(json) = %v, f = %q", err, f)
	}
	if err := f.Set("xml"); err == nil {
		t.Fatal("Set(xml) should fail")
	}
	if f != FormatJSON {
		t.Errorf("failed Set must not change the value, got %q", f)
	}
}

type sample struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

func TestWrite(t *testing.T) {
	in := sample{Name: "net_savings", Value: 4000}

	var buf bytes.Buffer
	if err := Write(&buf, FormatYAML, in); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: net_savings") {
		t.Errorf("yaml output = %q", buf.String())
	}
	var fromYAML sample
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil || fromYAML != in {
		t.Errorf("yaml round trip = %+v, %v", fromYAML, err)
	}

	buf.Reset()
	if err := Write(&buf, FormatJSON, in); err != nil {
		t.Fatal(err)
	}
	var fromJSON sample
	if err := json.Unmarshal(buf.Bytes(), &fromJSON); err != nil || fromJSON != in {
		t.Errorf("json round trip = %+v, %v", fromJSON, err)
	}

	if err := Write(&buf, Format("xml"), in); err == nil {
		t.Error("unknown format should fail")
	}
}
