package common

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"STORAGE_BACKEND", "IMAGE_BUCKET", "DATA_BUCKET", "URL_EXPIRATION", "DB_DRIVER", "WATCH_UPLOADS", "PUBLIC_BASE_URL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, "image-items", cfg.Storage.ImageBucket)
	assert.Equal(t, "data-items", cfg.Storage.DataBucket)
	assert.Equal(t, time.Hour, cfg.Storage.URLExpiry)
	assert.False(t, cfg.Storage.WatchUploads)
	assert.Equal(t, 5*1024*1024, cfg.Upload.MaxBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "FS")
	t.Setenv("LINK_SIGNING_KEY", "secret")
	t.Setenv("URL_EXPIRATION", "900")
	t.Setenv("PUBLIC_BASE_URL", "http://example.test/")
	t.Setenv("QUEUE_WORKERS", "not-a-number")
	cfg := LoadConfig()

	assert.Equal(t, BackendFS, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.WatchUploads, "the fs backend watches by default")
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLExpiry)
	assert.Equal(t, "http://example.test", cfg.Server.PublicBaseURL)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		t.Setenv("STORAGE_BACKEND", "s3")
		return LoadConfig()
	}

	cfg := base()
	cfg.Storage.Backend = "gcs"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

	cfg = base()
	cfg.Storage.Backend = BackendFS
	cfg.Storage.LinkSigningKey = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "CONFIG_ERROR", ErrorCode(err, ""))

	cfg = base()
	cfg.Database.Driver = "mysql"
	cfg.Database.DSN = "x"
	assert.Error(t, cfg.Validate())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewAppError("BAD", "bad", ErrValidation)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(WrapError(ErrNotFound, "lookup")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, "fallback", ErrorCode(errors.New("plain"), "fallback"))
}
