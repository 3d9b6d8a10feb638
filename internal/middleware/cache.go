package middleware

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/eventease/eventease/internal/config"
)

// captureWriter tees the handler's response so a successful body can be
// stored in Redis after it has been sent to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.buf.Len()+len(b) <= w.limit {
		w.buf.Write(b)
	} else {
		// Oversized responses are served but never cached.
		w.buf.Reset()
		w.limit = -1
	}
	return w.ResponseWriter.Write(b)
}

// NewRedisCache caches successful responses of the configured methods.
// Mutations go through the engine, not this layer, so a short TTL is the
// only consistency mechanism and that is fine for listing endpoints.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c)

			if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
				status, hdr, body, derr := decodePayload(raw)
				if derr == nil {
					for k, vs := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vs {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, hdr.Get("Content-Type"), body)
				}
				// Corrupt entry, fall through and refill.
				rdb.Del(req.Context(), key)
			}

			c.Response().Header().Set("X-Cache", "MISS")
			cw := &captureWriter{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && cw.limit >= 0 && cw.buf.Len() > 0 {
				payload := encodePayload(cw.status, c.Response().Header(), cw.buf.Bytes())
				rdb.SetEx(req.Context(), key, payload, cfg.TTL)
			}
			return nil
		}
	}
}

func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
	req := c.Request()
	var raw string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		raw = req.Method + "|" + req.URL.Path
	case "route_user":
		raw = req.Method + "|" + req.URL.Path + "|" + identityKey(c)
	default: // route_query
		raw = req.Method + "|" + req.URL.Path + "|" + req.URL.RawQuery
	}
	sum := sha1.Sum([]byte(raw))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// encodePayload packs [4B status][4B header length][header JSON][body].
func encodePayload(status int, hdr http.Header, body []byte) []byte {
	hdrJSON, err := json.Marshal(hdr)
	if err != nil {
		hdrJSON = []byte("{}")
	}
	out := make([]byte, 8, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	out = append(out, hdrJSON...)
	out = append(out, body...)
	return out
}

func decodePayload(raw []byte) (int, http.Header, []byte, error) {
	if len(raw) < 8 {
		return 0, nil, nil, errShortPayload
	}
	status := int(binary.BigEndian.Uint32(raw[0:4]))
	hlen := int(binary.BigEndian.Uint32(raw[4:8]))
	if len(raw) < 8+hlen {
		return 0, nil, nil, errShortPayload
	}
	var hdr http.Header
	if err := json.Unmarshal(raw[8:8+hlen], &hdr); err != nil {
		return 0, nil, nil, err
	}
	return status, hdr, raw[8+hlen:], nil
}

var errShortPayload = errors.New("cache payload truncated")
