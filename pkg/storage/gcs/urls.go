package gcs

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	publicHost        = "storage.googleapis.com"
	authenticatedHost = "storage.cloud.google.com"
	firebaseHost      = "firebasestorage.googleapis.com"
)

// PublicURL returns the public https URL of an object.
func PublicURL(bucket, object string) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://%s/%s/%s", publicHost, bucket, strings.Join(segments, "/"))
}

// FirebaseDownloadURL returns a Firebase Storage download URL. The token must
// match the object's firebaseStorageDownloadTokens metadata.
func FirebaseDownloadURL(bucket, object, token string) string {
	u := fmt.Sprintf("https://%s/v0/b/%s/o/%s?alt=media", firebaseHost, bucket, url.PathEscape(object))
	if token != "" {
		u += "&token=" + url.QueryEscape(token)
	}
	return u
}

// ParseObjectURL extracts bucket and object from public GCS, authenticated
// GCS, gs:// and Firebase download URLs.
func ParseObjectURL(raw string) (bucket, object string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", false
	}

	switch {
	case u.Scheme == "gs":
		bucket = u.Host
		object = strings.TrimPrefix(u.Path, "/")
	case u.Scheme == "https" && (strings.EqualFold(u.Host, publicHost) || strings.EqualFold(u.Host, authenticatedHost)):
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(parts) != 2 {
			return "", "", false
		}
		bucket, object = parts[0], parts[1]
	case u.Scheme == "https" && strings.EqualFold(u.Host, firebaseHost):
		// /v0/b/<bucket>/o/<escaped object>
		parts := strings.SplitN(strings.TrimPrefix(u.EscapedPath(), "/"), "/", 5)
		if len(parts) != 5 || parts[0] != "v0" || parts[1] != "b" || parts[3] != "o" {
			return "", "", false
		}
		bucket = parts[2]
		decoded, err := url.PathUnescape(parts[4])
		if err != nil {
			return "", "", false
		}
		object = decoded
	default:
		return "", "", false
	}

	if bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}
