package main

import "testing"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"minimal", Config{SkeletonFile: "p.json"}, ""},
		{"all outputs", Config{SkeletonFile: "p.json", OutputHTML: "r.html", OutputPNG: "r.png", OutputJSON: "-"}, ""},
		{"missing skeleton", Config{}, "-skeleton is required"},
		{"skeleton extension", Config{SkeletonFile: "p.ply"}, "-skeleton must end with .json"},
		{"html extension", Config{SkeletonFile: "p.json", OutputHTML: "r.htm"}, "-html must end with .html"},
		{"png extension", Config{SkeletonFile: "p.json", OutputPNG: "r.jpg"}, "-png must end with .png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
