package store

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		raw  string
		want BlobRef
	}{
		{"s3://voices/user.wav", BlobRef{"voices", "user.wav"}},
		{"s3://voices/nested/dir/user.wav", BlobRef{"voices", "nested/dir/user.wav"}},
		{"https://s3.ap-northeast-1.amazonaws.com/voices/Example-job-2024-05-01-12-00-00.json",
			BlobRef{"voices", "Example-job-2024-05-01-12-00-00.json"}},
		{"https://s3.amazonaws.com/voices/job.json", BlobRef{"voices", "job.json"}},
		{"https://voices.s3.ap-northeast-1.amazonaws.com/job.json", BlobRef{"voices", "job.json"}},
		{"https://voices.s3-us-west-2.amazonaws.com/job.json", BlobRef{"voices", "job.json"}},
		{"http://127.0.0.1:9000/voices/job.json", BlobRef{"voices", "job.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseURI(tt.raw)
			if err != nil {
				t.Fatalf("ParseURI: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseURI_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"ftp://voices/user.wav",
		"s3://voices",
		"s3://voices/",
		"https://s3.amazonaws.com/voices",
		"::not a uri",
	} {
		if _, err := ParseURI(raw); err == nil {
			t.Errorf("ParseURI(%q) succeeded", raw)
		}
	}
}

func TestBlobRef_URI(t *testing.T) {
	ref := BlobRef{Bucket: "voices", Key: "user.wav"}
	if got := ref.URI(); got != "s3://voices/user.wav" {
		t.Errorf("URI() = %q", got)
	}
	back, err := ParseURI(ref.URI())
	if err != nil || back != ref {
		t.Errorf("ParseURI(URI()) = %+v, %v", back, err)
	}
}
