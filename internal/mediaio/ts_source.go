package mediaio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h265"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
)

// TSSource opens file:// and http(s):// MPEG-TS streams and bridges
// mediacommon's push/callback-style reader into the pull-style Source
// contract: a background goroutine drives the reader's blocking Read loop
// and forwards each decoded access unit onto a channel that NextFrame
// drains.
//
// Duration always reports unknown: MPEG-TS carries no reliable
// total-duration field without an out-of-band probe.
type TSSource struct {
	rawCloser io.Closer
	frames    chan DecodeResult
	done      chan struct{}

	closeOnce sync.Once
	initErr   error
}

// OpenTS opens a TSSource for url. srt:// is reported Unsupported: no SRT
// client exists in this module's dependency set.
func OpenTS(ctx context.Context, rawURL string) (Source, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &OpenError{URL: rawURL, Kind: OpenUnsupported, Err: err}
	}

	var reader io.ReadCloser
	switch strings.ToLower(parsed.Scheme) {
	case "file", "":
		path := strings.TrimPrefix(rawURL, "file://")
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &OpenError{URL: rawURL, Kind: OpenNotFound, Err: err}
			}
			return nil, &OpenError{URL: rawURL, Kind: OpenNetworkError, Err: err}
		}
		reader = f

	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, &OpenError{URL: rawURL, Kind: OpenNetworkError, Err: err}
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, &OpenError{URL: rawURL, Kind: OpenNetworkError, Err: err}
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, &OpenError{URL: rawURL, Kind: OpenNotFound}
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &OpenError{URL: rawURL, Kind: OpenNetworkError, Err: fmt.Errorf("status %d", resp.StatusCode)}
		}
		reader = resp.Body

	case "srt":
		return nil, &OpenError{URL: rawURL, Kind: OpenUnsupported, Err: errors.New("srt sources are not supported by this build")}

	default:
		return nil, &OpenError{URL: rawURL, Kind: OpenUnsupported, Err: fmt.Errorf("unrecognized scheme %q", parsed.Scheme)}
	}

	src := &TSSource{
		rawCloser: reader,
		frames:    make(chan DecodeResult, 64),
		done:      make(chan struct{}),
	}

	tsReader := &mpegts.Reader{R: reader}
	if err := tsReader.Initialize(); err != nil {
		reader.Close()
		return nil, &OpenError{URL: rawURL, Kind: OpenUnsupported, Err: err}
	}

	for i, track := range tsReader.Tracks() {
		streamIndex := i
		switch track.Codec.(type) {
		case *mpegts.CodecH264:
			tsReader.OnDataH264(track, func(pts, dts int64, au [][]byte) error {
				return src.emitVideo(streamIndex, pts, dts, au)
			})
		case *mpegts.CodecH265:
			tsReader.OnDataH265(track, func(pts, dts int64, au [][]byte) error {
				return src.emitVideo(streamIndex, pts, dts, au)
			})
		case *mpegts.CodecMPEG4Audio:
			tsReader.OnDataMPEG4Audio(track, func(pts int64, aus [][]byte) error {
				return src.emitAudio(streamIndex, pts, aus)
			})
		case *mpegts.CodecAC3:
			tsReader.OnDataAC3(track, func(pts int64, frame []byte) error {
				return src.emitAudio(streamIndex, pts, [][]byte{frame})
			})
		case *mpegts.CodecEAC3:
			tsReader.OnDataEAC3(track, func(pts int64, frame []byte) error {
				return src.emitAudio(streamIndex, pts, [][]byte{frame})
			})
		}
	}

	go src.run(tsReader)

	return src, nil
}

// run drives the reader's blocking Read loop until EOF/closed/cancelled.
func (s *TSSource) run(reader *mpegts.Reader) {
	defer func() {
		s.rawCloser.Close()
		close(s.frames)
		close(s.done)
	}()

	for {
		if err := reader.Read(); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				s.initErr = err
			}
			return
		}
	}
}

func (s *TSSource) emitVideo(streamIndex int, pts, dts int64, au [][]byte) error {
	if len(au) == 0 {
		return nil
	}
	annexB, err := h264.AnnexB(au).Marshal()
	if err != nil || len(annexB) == 0 {
		return nil
	}
	s.frames <- DecodeResult{
		Kind: DecodeFrame,
		Frame: Frame{
			StreamIndex: streamIndex,
			Data:        annexB,
			PTS:         pts,
			DTS:         dts,
			Keyframe:    h264.IsRandomAccess(au) || h265.IsRandomAccess(au),
		},
	}
	return nil
}

func (s *TSSource) emitAudio(streamIndex int, pts int64, aus [][]byte) error {
	for _, au := range aus {
		if len(au) == 0 {
			continue
		}
		s.frames <- DecodeResult{
			Kind: DecodeFrame,
			Frame: Frame{
				StreamIndex: streamIndex,
				Data:        au,
				PTS:         pts,
			},
		}
	}
	return nil
}

// Duration implements Source. MPEG-TS has no reliable total-duration field.
func (s *TSSource) Duration() (float64, bool) {
	return durationUnknown()
}

// NextFrame implements Source.
func (s *TSSource) NextFrame() (DecodeResult, error) {
	frame, ok := <-s.frames
	if !ok {
		select {
		case <-s.done:
		default:
		}
		if s.initErr != nil {
			return DecodeResult{Kind: DecodeEndOfStream}, s.initErr
		}
		return DecodeResult{Kind: DecodeEndOfStream}, nil
	}
	return frame, nil
}

// Close implements Source.
func (s *TSSource) Close() error {
	s.closeOnce.Do(func() {
		s.rawCloser.Close()
	})
	return nil
}
