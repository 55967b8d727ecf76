package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/crowdsafe/internal/config"
)

// captureWriter tees the response body, up to limit bytes, while
// forwarding it to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
    over   bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.over {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.over = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey keeps the concrete path readable and hashes method and query,
// so each event's alert list gets its own entries and they can be purged
// by path.
func cacheKey(prefix string, c echo.Context) string {
    r := c.Request()
    sum := sha1.Sum([]byte(r.Method + " " + r.URL.RawQuery))
    return fmt.Sprintf("%s:%s:%x", prefix, r.URL.Path, sum[:])
}

func pathPattern(prefix, path string) string { return prefix + ":" + path + ":*" }

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache serves repeated reads from Redis for cfg.TTL.  Only 200
// responses that fit in MaxBodyBytes are stored.  The X-Cache header tells
// clients whether the response was a HIT or a MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg.Prefix, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.over {
                return nil
            }
            hdr := c.Response().Header().Clone()
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.SetEx(context.WithoutCancel(ctx), key, payload, cfg.TTL).Err()
            }
            return nil
        }
    }
}

// CachePurger drops cached reads once the data behind them changes.  A nil
// *CachePurger is valid and purges nothing.
type CachePurger struct {
    rdb    *redis.Client
    prefix string
}

// NewCachePurger returns nil when the cache is disabled or Redis is absent.
func NewCachePurger(cfg config.CacheConfig, rdb *redis.Client) *CachePurger {
    if !cfg.Enabled || rdb == nil {
        return nil
    }
    return &CachePurger{rdb: rdb, prefix: cfg.Prefix}
}

// InvalidateAlerts removes every cached page of the event's alert history.
func (p *CachePurger) InvalidateAlerts(ctx context.Context, eventID uint64) error {
    if p == nil {
        return nil
    }
    pattern := pathPattern(p.prefix, fmt.Sprintf("/v1/events/%d/alerts", eventID))
    var keys []string
    iter := p.rdb.Scan(ctx, 0, pattern, 100).Iterator()
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return p.rdb.Del(ctx, keys...).Err()
}
