package domain

import "testing"

func TestManifestEqual(t *testing.T) {
	base := ArchiveManifest{Entries: []ManifestEntry{
		{RelativePath: "rollout.jsonl", SizeBytes: 100, MtimeSeconds: 1700000000, Hash: "aa"},
		{RelativePath: "meta.json", SizeBytes: 20, MtimeSeconds: 1700000001},
	}}

	tests := []struct {
		name  string
		other ArchiveManifest
		want  bool
	}{
		{
			name: "identical",
			other: ArchiveManifest{Entries: []ManifestEntry{
				{RelativePath: "rollout.jsonl", SizeBytes: 100, MtimeSeconds: 1700000000, Hash: "aa"},
				{RelativePath: "meta.json", SizeBytes: 20, MtimeSeconds: 1700000001},
			}},
			want: true,
		},
		{
			name: "size differs",
			other: ArchiveManifest{Entries: []ManifestEntry{
				{RelativePath: "rollout.jsonl", SizeBytes: 140, MtimeSeconds: 1700000000, Hash: "aa"},
				{RelativePath: "meta.json", SizeBytes: 20, MtimeSeconds: 1700000001},
			}},
			want: false,
		},
		{
			name: "entry missing",
			other: ArchiveManifest{Entries: []ManifestEntry{
				{RelativePath: "rollout.jsonl", SizeBytes: 100, MtimeSeconds: 1700000000, Hash: "aa"},
			}},
			want: false,
		},
		{
			name: "order differs",
			other: ArchiveManifest{Entries: []ManifestEntry{
				{RelativePath: "meta.json", SizeBytes: 20, MtimeSeconds: 1700000001},
				{RelativePath: "rollout.jsonl", SizeBytes: 100, MtimeSeconds: 1700000000, Hash: "aa"},
			}},
			want: false,
		},
		{
			name:  "both empty",
			other: ArchiveManifest{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}

	empty := ArchiveManifest{}
	if !empty.Equal(ArchiveManifest{}) {
		t.Error("two empty manifests must compare equal")
	}
}

func TestManifestTotalSize(t *testing.T) {
	m := ArchiveManifest{Entries: []ManifestEntry{
		{RelativePath: "a", SizeBytes: 100},
		{RelativePath: "b", SizeBytes: 40},
	}}
	if got := m.TotalSize(); got != 140 {
		t.Errorf("TotalSize() = %d, want 140", got)
	}
}
