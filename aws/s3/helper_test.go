package s3

import "testing"

func TestParseDSN(t *testing.T) {
	cases := []struct {
		in, region   string
		name, prefix string
		wantErr      bool
	}{
		{"s3://bucket/some/prefix/", "eu-west-1", "bucket", "some/prefix", false},
		{"bucket/prefix", "eu-west-1", "bucket", "prefix", false},
		{"bucket", "eu-west-1", "bucket", "", false},
		{"s3://bucket", "", "", "", true},
		{"https://bucket/x", "eu-west-1", "", "", true},
		{"s3:///x", "eu-west-1", "", "", true},
	}
	for _, tc := range cases {
		b, err := ParseDSN(tc.in, tc.region)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error parsing %q", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error parsing %q: %v", tc.in, err)
		}
		if b.Name != tc.name || b.Prefix != tc.prefix || b.Region != tc.region {
			t.Fatalf("unexpected bucket for %q: %+v", tc.in, b)
		}
	}
}

func TestExportKey(t *testing.T) {
	if got := ExportKey("films.psv.gz"); got != "export/films.psv.gz" {
		t.Fatalf("unexpected key %v", got)
	}
}
