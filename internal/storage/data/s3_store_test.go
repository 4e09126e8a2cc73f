package data

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/dealer-backend/internal/pkg/logger"
	"github.com/lk2023060901/dealer-backend/internal/storage/biz"
)

// fakeS3 answers the handful of path-style requests the store makes.
func fakeS3(t *testing.T, handler http.HandlerFunc) *S3Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:       "dealer-media",
		Region:       "us-east-1",
		Endpoint:     srv.URL,
		AccessKey:    "test",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}, logger.NewNop())
	require.NoError(t, err)
	return store
}

const listPage = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>dealer-media</Name>
<IsTruncated>%t</IsTruncated>
%s
%s
</ListBucketResult>`

func TestS3Store_ListAllFollowsPages(t *testing.T) {
	store := fakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dealer-media", r.URL.Path)
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("continuation-token") == "" {
			fmt.Fprintf(w, listPage, true, "<NextContinuationToken>page-2</NextContinuationToken>",
				"<Contents><Key>vehicles/v-1/1.jpg</Key><Size>100</Size></Contents>"+
					"<Contents><Key>vehicles/v-1/2.jpg</Key><Size>200</Size></Contents>")
			return
		}
		fmt.Fprintf(w, listPage, false, "", "<Contents><Key>stores/t-1/logo.jpg</Key><Size>50</Size></Contents>")
	})

	entries, errCh := store.ListAll(context.Background())
	var got []biz.ObjectEntry
	for e := range entries {
		got = append(got, e)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []biz.ObjectEntry{
		{Key: "vehicles/v-1/1.jpg", Size: 100},
		{Key: "vehicles/v-1/2.jpg", Size: 200},
		{Key: "stores/t-1/logo.jpg", Size: 50},
	}, got)
}

func TestS3Store_ListAllReportsUnavailable(t *testing.T) {
	store := fakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<Error><Code>NoSuchBucket</Code><Message>missing</Message></Error>`)
	})

	entries, errCh := store.ListAll(context.Background())
	for range entries {
		t.Fatal("no entries expected")
	}
	assert.ErrorIs(t, <-errCh, biz.ErrStoreUnavailable)
}

func TestS3Store_StatAndDelete(t *testing.T) {
	store := fakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && strings.HasSuffix(r.URL.Path, "/missing.jpg"):
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodHead:
			w.Header().Set("Content-Length", "1234")
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("ETag", `"abc"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/denied.jpg"):
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `<Error><Code>AccessDenied</Code><Message>no</Message></Error>`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	ctx := context.Background()

	info, err := store.Stat(ctx, "vehicles/v-1/1.jpg")
	require.NoError(t, err)
	assert.EqualValues(t, 1234, info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)

	_, err = store.Stat(ctx, "vehicles/v-1/missing.jpg")
	assert.ErrorIs(t, err, biz.ErrObjectNotFound)

	assert.NoError(t, store.Delete(ctx, "vehicles/v-1/gone.jpg"))
	assert.ErrorIs(t, store.Delete(ctx, "vehicles/v-1/denied.jpg"), biz.ErrStoreWrite)
}

func TestS3Store_LifecycleMissingConfiguration(t *testing.T) {
	store := fakeS3(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<Error><Code>NoSuchLifecycleConfiguration</Code><Message>none</Message></Error>`)
	})

	rules, err := store.GetLifecycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
}
