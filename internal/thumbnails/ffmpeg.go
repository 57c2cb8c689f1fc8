package thumbnails

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// FFmpegExtractor pulls a single still frame out of a video with the ffmpeg CLI.
type FFmpegExtractor struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFmpegExtractor constructs an extractor that shells out to ffmpeg.
func NewFFmpegExtractor(binary string, timeout time.Duration) *FFmpegExtractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FFmpegExtractor{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Extract writes one frame sampled at offset, stretched to Width x Height, to outPath.
// The process is killed when Timeout elapses.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, outPath string, offset time.Duration) error {
	if e == nil {
		return errors.New("ffmpeg extractor not configured")
	}
	if e.Run == nil {
		e.Run = defaultCommandRunner
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := e.Run(execCtx, e.Binary, ExtractArgs(videoPath, outPath, offset)...)
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("ffmpeg timed out after %s: %w", timeout, err)
		}
		if msg := lastLine(out); msg != "" {
			return fmt.Errorf("ffmpeg extract: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

// ExtractArgs returns the ffmpeg argument list for a single-frame extraction.
func ExtractArgs(videoPath, outPath string, offset time.Duration) []string {
	return []string{
		"-i", videoPath,
		"-ss", formatSeconds(offset),
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", Width, Height),
		"-y",
		outPath,
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func lastLine(out []byte) string {
	trimmed := strings.TrimSpace(string(out))
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		return strings.TrimSpace(trimmed[idx+1:])
	}
	return trimmed
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	// Stop waiting on inherited pipes shortly after the process is killed.
	cmd.WaitDelay = time.Second
	return cmd.CombinedOutput()
}
