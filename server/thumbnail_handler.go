package server

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"time"

	"oneradio/logger"
	"oneradio/model"

	"golang.org/x/image/draw"
)

const soundcloudThumbnailSize = 256

// thumbnailHandler builds a handler bound to one source's thumbnail
// endpoint: fetch the engine's cached thumbnail URL, decode, re-encode to
// PNG, resize for SoundCloud, and cache the result in MinIO.
func (h *APIHandler) thumbnailHandler(source model.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := h.engine.CurrentThumbnail(source)
		if url == "" {
			http.Error(w, "no track currently playing for this source", http.StatusNotFound)
			return
		}

		w.Header().Set("Cache-Control", "no-store")

		ctx := r.Context()
		if cached, hit, err := h.thumbnails.Get(ctx, string(source), url); err == nil && hit {
			w.Header().Set("Content-Type", "image/png")
			png.Encode(w, cached)
			return
		}

		img, err := fetchThumbnailImage(ctx, url)
		if err != nil {
			logger.Warn("thumbnail fetch failed", logger.String("url", url), logger.ErrorField(err))
			http.Error(w, "upstream thumbnail fetch failed", http.StatusBadGateway)
			return
		}

		if source == model.SourceSoundCloud {
			img = coverFitResize(img, soundcloudThumbnailSize, soundcloudThumbnailSize)
		}

		if err := h.thumbnails.Put(ctx, string(source), url, img); err != nil {
			logger.Warn("thumbnail cache write failed", logger.ErrorField(err))
		}

		w.Header().Set("Content-Type", "image/png")
		png.Encode(w, img)
	}
}

func fetchThumbnailImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	return img, err
}

// coverFitResize scales img to exactly fill w x h, cropping the longer
// dimension so no letterboxing appears (cover-fit, not contain-fit).
func coverFitResize(img image.Image, w, h int) image.Image {
	srcW, srcH := img.Bounds().Dx(), img.Bounds().Dy()
	scale := float64(w) / float64(srcW)
	if s := float64(h) / float64(srcH); s > scale {
		scale = s
	}

	scaledW, scaledH := int(float64(srcW)*scale), int(float64(srcH)*scale)
	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	x0 := (scaledW - w) / 2
	y0 := (scaledH - h) / 2
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), scaled, image.Pt(x0, y0), draw.Src)
	return out
}
