package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "path"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/crowdsafe/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
    require.NoError(t, err)

    status, gotHdr, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
    assert.Equal(t, `{"ok":true}`, string(body))

    _, _, _, ok = decodePayload(bs[:5])
    assert.False(t, ok)
    _, _, _, ok = decodePayload(append([]byte{0, 0, 0, 200, 0, 0, 1, 0}, 'x'))
    assert.False(t, ok, "header length past the end")
}

func TestCacheKeyVariesByEventAndQuery(t *testing.T) {
    e := echo.New()
    key := func(target string) string {
        return cacheKey("c", e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
    }
    assert.Equal(t, key("/v1/events/1/alerts"), key("/v1/events/1/alerts"))
    assert.NotEqual(t, key("/v1/events/1/alerts"), key("/v1/events/2/alerts"))
    assert.NotEqual(t, key("/v1/events/1/alerts?limit=5"), key("/v1/events/1/alerts"))
}

func TestPathPatternCoversEveryQuery(t *testing.T) {
    e := echo.New()
    key := func(target string) string {
        return cacheKey("c", e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder()))
    }
    pattern := pathPattern("c", "/v1/events/1/alerts")
    match := func(k string) bool {
        ok, err := path.Match(pattern, k)
        require.NoError(t, err)
        return ok
    }
    assert.True(t, match(key("/v1/events/1/alerts")))
    assert.True(t, match(key("/v1/events/1/alerts?limit=5")))
    assert.False(t, match(key("/v1/events/12/alerts")))
    assert.False(t, match(key("/v1/events/1/contacts")))
}

func TestNilCachePurger(t *testing.T) {
    assert.Nil(t, NewCachePurger(config.CacheConfig{Enabled: true}, nil))
    var p *CachePurger
    assert.NoError(t, p.InvalidateAlerts(context.Background(), 1))
}

func TestCaptureWriterLimit(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("ab"))
    assert.False(t, cw.over)
    _, _ = cw.Write([]byte("cde"))
    assert.True(t, cw.over)
    assert.Zero(t, cw.buf.Len())
    assert.Equal(t, "abcde", rec.Body.String())
}

func TestRedisCachePassThroughWithoutRedis(t *testing.T) {
    mw := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
    do := serve(t, func(c echo.Context) error { return c.String(http.StatusOK, "fresh") }, mw)
    rec := do("")
    assert.Equal(t, "fresh", rec.Body.String())
    assert.Empty(t, rec.Header().Get("X-Cache"))
}
