package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const maxStderrBytes = 4 * 1024

// Config holds the binaries and limits used by FFmpeg.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	// Order selects the decoder output layout. Consumers normalize it.
	Order   ChannelOrder
	Timeout time.Duration
	Logger  *slog.Logger
}

// FFmpeg implements probing with ffprobe and frame decoding with ffmpeg.
type FFmpeg struct {
	cfg Config
}

func NewFFmpeg(cfg Config) *FFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &FFmpeg{cfg: cfg}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

type probeStream struct {
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NBFrames     string `json:"nb_frames"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
}

// Open probes path and returns its first video stream.
func (f *FFmpeg) Open(ctx context.Context, path string) (Source, error) {
	if strings.TrimSpace(path) == "" {
		return Source{}, fmt.Errorf("%w: empty path", ErrUnreadable)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.cfg.FFprobePath,
		"-v", "error",
		"-hide_banner",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,nb_frames,r_frame_rate,avg_frame_rate,duration:format=duration",
		"-of", "json",
		"--", path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Source{}, fmt.Errorf("%w: ffprobe: %v: %s", ErrUnreadable, err, tail(stderr.String()))
	}

	src, err := ParseProbe(out)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	src.Path = path
	return src, nil
}

// ParseProbe converts ffprobe JSON into a Source. When the container does not
// report nb_frames the count is estimated from duration and frame rate.
func ParseProbe(data []byte) (Source, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Source{}, fmt.Errorf("parse ffprobe json: %w", err)
	}
	if len(out.Streams) == 0 {
		return Source{}, fmt.Errorf("no video stream")
	}

	st := out.Streams[0]
	src := Source{
		Width:  st.Width,
		Height: st.Height,
		Codec:  st.CodecName,
	}

	src.FrameRate = ParseRate(st.AvgFrameRate)
	if src.FrameRate <= 0 {
		src.FrameRate = ParseRate(st.RFrameRate)
	}

	src.Duration = parseSeconds(st.Duration)
	if src.Duration <= 0 {
		src.Duration = parseSeconds(out.Format.Duration)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(st.NBFrames)); err == nil && n > 0 {
		src.FrameCount = n
	} else if src.Duration > 0 && src.FrameRate > 0 {
		src.FrameCount = int(math.Floor(src.Duration * src.FrameRate))
	}

	if src.Width <= 0 || src.Height <= 0 {
		return Source{}, fmt.Errorf("invalid frame size %dx%d", src.Width, src.Height)
	}
	return src, nil
}

// ParseRate parses an ffprobe rational such as "30000/1001".
func ParseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// ReadFrame seeks to frame index of src and decodes a single frame scaled to
// the source dimensions.
func (f *FFmpeg) ReadFrame(ctx context.Context, src Source, index int) (*Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	ts := src.TimestampOf(index)
	cmd := exec.CommandContext(ctx, f.cfg.FFmpegPath, frameArgs(src, ts, f.cfg.Order)...)
	var stdout, stderr bytes.Buffer
	stdout.Grow(src.Width * src.Height * 3)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame %d: %w: %s", index, err, tail(stderr.String()))
	}

	frame := &Frame{
		Index:  index,
		Width:  src.Width,
		Height: src.Height,
		Order:  f.cfg.Order,
		Pix:    stdout.Bytes(),
	}
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame %d: %w", index, err)
	}
	return frame, nil
}

func frameArgs(src Source, ts float64, order ChannelOrder) []string {
	return []string{
		"-v", "error",
		"-hide_banner",
		// Input seeking lands on the nearest preceding keyframe then decodes forward.
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", src.Path,
		"-frames:v", "1",
		"-an", "-sn",
		"-vf", fmt.Sprintf("scale=%d:%d", src.Width, src.Height),
		"-f", "rawvideo",
		"-pix_fmt", order.PixFmt(),
		"pipe:1",
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrBytes {
		return s[len(s)-maxStderrBytes:]
	}
	return s
}
