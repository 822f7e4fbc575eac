package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"oneradio/config"
	"oneradio/core/apperr"
	"oneradio/core/encoder"
	"oneradio/model"
)

// YouTubeFetcher resolves a YouTube track URL through a fast in-process HTTP
// client first, falling back to an external subprocess fetcher (yt-dlp, by
// default) for videos the in-process path can't resolve directly. Which
// strategy runs first is controlled by config.DisableExternalFetcher /
// config.ExternalFetcherFirst (spec §4.2/§6).
type YouTubeFetcher struct {
	cfg    *config.Config
	client *http.Client
}

// NewYouTubeFetcher builds a YouTubeFetcher from cfg.
func NewYouTubeFetcher(cfg *config.Config) *YouTubeFetcher {
	return &YouTubeFetcher{cfg: cfg, client: &http.Client{}}
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, track *model.Track) (encoder.AudioInput, error) {
	if f.cfg.ExternalFetcherFirst {
		return f.fetchSubprocess(ctx, track)
	}

	input, err := f.fetchInProcess(ctx, track)
	if err == nil {
		return input, nil
	}
	if f.cfg.DisableExternalFetcher {
		return encoder.AudioInput{}, err
	}
	return f.fetchSubprocess(ctx, track)
}

func (f *YouTubeFetcher) fetchInProcess(ctx context.Context, track *model.Track) (encoder.AudioInput, error) {
	ctx, cancel := context.WithTimeout(ctx, InProcessStartupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
	if err != nil {
		return encoder.AudioInput{}, apperr.Wrap(apperr.Internal, "build youtube request", err)
	}
	req.Header.Set("User-Agent", f.cfg.YoutubeUserAgent)
	if f.cfg.YoutubeCookie != "" {
		req.Header.Set("Cookie", f.cfg.YoutubeCookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errIsContextDeadline(err) {
			return encoder.AudioInput{}, apperr.Wrap(apperr.Timeout, "youtube in-process fetch timed out", err)
		}
		return encoder.AudioInput{}, apperr.Wrap(apperr.UpstreamFailure, "youtube in-process fetch failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return encoder.AudioInput{}, apperr.New(apperr.UpstreamFailure, fmt.Sprintf("youtube upstream status %d", resp.StatusCode))
	}

	return encoder.StreamInput(resp.Body), nil
}

func (f *YouTubeFetcher) fetchSubprocess(ctx context.Context, track *model.Track) (encoder.AudioInput, error) {
	args := []string{
		"-f", f.cfg.ExternalFetcherFormat,
		"-o", "-",
		"--quiet",
	}

	cookieFile, err := NetscapeCookieFile(f.cfg.YoutubeCookie)
	if err != nil {
		return encoder.AudioInput{}, apperr.Wrap(apperr.Internal, "materialize youtube cookie file", err)
	}
	if f.cfg.YoutubeCookieFile != "" {
		cookieFile = f.cfg.YoutubeCookieFile
	}
	if cookieFile != "" {
		args = append(args, "--cookies", cookieFile)
	}

	args = append(args, track.URL)

	stream, err := startSubprocessStream(ctx, f.cfg.ExternalFetcherPath, args, SubprocessStartupTimeout)
	if err != nil {
		return encoder.AudioInput{}, fmt.Errorf("youtube subprocess fetcher: %w", err)
	}
	return encoder.StreamInput(stream), nil
}

// subprocessReadCloser ties an external fetcher's stdout pipe to its
// process lifetime so Close always reaps the subprocess.
type subprocessReadCloser struct {
	stdout io.ReadCloser
	cmd    *exec.Cmd
}

func (s *subprocessReadCloser) Read(p []byte) (int, error) { return s.stdout.Read(p) }

func (s *subprocessReadCloser) Close() error {
	s.stdout.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	go s.cmd.Wait()
	return nil
}

// prefetchedReadCloser replays the bytes already consumed while racing the
// startup timeout before falling through to the live reader.
type prefetchedReadCloser struct {
	prefix []byte
	rc     io.ReadCloser
}

func (p *prefetchedReadCloser) Read(b []byte) (int, error) {
	if len(p.prefix) > 0 {
		n := copy(b, p.prefix)
		p.prefix = p.prefix[n:]
		return n, nil
	}
	return p.rc.Read(b)
}

func (p *prefetchedReadCloser) Close() error { return p.rc.Close() }

// startSubprocessStream launches an external fetcher subprocess and treats
// it as "started" the instant its first byte of audio is available,
// destroying the process if that takes longer than timeout.
func startSubprocessStream(ctx context.Context, path string, args []string, timeout time.Duration) (io.ReadCloser, error) {
	cmd := exec.Command(path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	rc := &subprocessReadCloser{stdout: stdout, cmd: cmd}

	type firstRead struct {
		n   int
		buf []byte
		err error
	}
	resultCh := make(chan firstRead, 1)
	go func() {
		buf := make([]byte, 4096)
		n, err := stdout.Read(buf)
		resultCh <- firstRead{n: n, buf: buf[:n], err: err}
	}()

	select {
	case res := <-resultCh:
		if res.n == 0 && res.err != nil {
			rc.Close()
			return nil, fmt.Errorf("subprocess produced no data: %w", res.err)
		}
		return &prefetchedReadCloser{prefix: res.buf, rc: rc}, nil
	case <-time.After(timeout):
		rc.Close()
		return nil, apperr.New(apperr.Timeout, "subprocess fetcher startup timed out")
	case <-ctx.Done():
		rc.Close()
		return nil, ctx.Err()
	}
}
