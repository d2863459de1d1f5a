package store

import (
	"fmt"
	"net/url"
	"strings"
)

// BlobRef names one object in the store.
type BlobRef struct {
	Bucket string
	Key    string
}

// URI renders the reference as s3://bucket/key.
func (r BlobRef) URI() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

func (r BlobRef) String() string {
	return r.URI()
}

// ParseURI accepts s3://bucket/key, path-style http(s)://host/bucket/key and
// virtual-hosted https://bucket.s3.<region>.amazonaws.com/key.
func ParseURI(raw string) (BlobRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return BlobRef{}, fmt.Errorf("invalid blob uri %q: %w", raw, err)
	}

	var ref BlobRef
	switch u.Scheme {
	case "s3":
		ref = BlobRef{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}
	case "http", "https":
		host := u.Hostname()
		path := strings.TrimPrefix(u.Path, "/")
		if i := virtualHostIndex(host); i > 0 {
			ref = BlobRef{Bucket: host[:i], Key: path}
			break
		}
		bucket, key, _ := strings.Cut(path, "/")
		ref = BlobRef{Bucket: bucket, Key: key}
	default:
		return BlobRef{}, fmt.Errorf("unsupported blob uri scheme %q", u.Scheme)
	}

	if ref.Bucket == "" || ref.Key == "" {
		return BlobRef{}, fmt.Errorf("blob uri %q does not name a bucket and key", raw)
	}
	return ref, nil
}

func virtualHostIndex(host string) int {
	if !strings.HasSuffix(host, ".amazonaws.com") {
		return -1
	}
	for _, marker := range []string{".s3.", ".s3-"} {
		if i := strings.Index(host, marker); i > 0 {
			return i
		}
	}
	return -1
}
