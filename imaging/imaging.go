/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

// Package imaging prepares images so they fit comfortably in a model context.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/PivotLLM/DevTools/global"
	"github.com/PivotLLM/DevTools/logging"
)

const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

// Image is an encoded, size-limited image ready to return to the client
type Image struct {
	Path         string `json:"path,omitempty"`
	MimeType     string `json:"mime_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
	Data         []byte `json:"-"`
}

// Base64 returns the encoded data as standard base64
func (i *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Summary describes the conversion in one line
func (i *Image) Summary() string {
	name := i.Path
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("Processed %s: %dx%d -> %dx%d (%s)",
		name, i.SourceWidth, i.SourceHeight, i.Width, i.Height, i.MimeType)
}

// Processor scales and re-encodes images
type Processor struct {
	maxWidth    int
	maxFileSize int64
	quality     int
	logger      *logging.Logger
}

// Option is a functional option for configuring Processor
type Option func(*Processor)

// WithMaxWidth sets the width images are scaled down to
func WithMaxWidth(w int) Option {
	return func(p *Processor) {
		if w > 0 {
			p.maxWidth = w
		}
	}
}

// WithMaxFileSize sets the largest file ProcessFile accepts
func WithMaxFileSize(n int64) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxFileSize = n
		}
	}
}

// WithLogger sets the logger for the processor
func WithLogger(logger *logging.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// New creates a processor with the default limits
func New(opts ...Option) *Processor {
	p := &Processor{
		maxWidth:    global.MaxImageWidth,
		maxFileSize: global.MaxImageFileSize,
		quality:     global.JPEGQuality,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	return p
}

// ScaleFactor converts a resize argument to a multiplier. Empty means no extra scaling.
func ScaleFactor(resize string) (float64, error) {
	switch resize {
	case "":
		return 1, nil
	case "1/2":
		return 0.5, nil
	case "1/4":
		return 0.25, nil
	}
	return 0, global.Errorf(global.KindInvalidArgument,
		"Invalid resize factor '%s'. Allowed values: '1/2', '1/4'", resize).WithField("resize")
}

// ProcessFile loads the image at path and prepares it
func (p *Processor) ProcessFile(path, resize string) (*Image, error) {
	if runtime.GOOS == "darwin" {
		path = screenshotPath(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, global.Errorf(global.KindNotFound, "File '%s' does not exist", path).WithPath(path)
		}
		return nil, global.WrapIO(path, "stat", err)
	}
	if info.IsDir() {
		return nil, global.Errorf(global.KindInvalidArgument, "'%s' is a directory", path).WithField("path").WithPath(path)
	}
	if info.Size() > p.maxFileSize {
		return nil, global.Errorf(global.KindTooLarge, "File '%s' is too large (%.2fMB). Maximum size is %.0fMB.",
			path, float64(info.Size())/(1024*1024), float64(p.maxFileSize)/(1024*1024)).WithPath(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, global.WrapIO(path, "read", err)
	}

	img, err := p.Process(data, formatFromPath(path), resize)
	if err != nil {
		te := global.AsToolError(err)
		if te.Path == "" {
			te.Path = path
		}
		return nil, te
	}
	img.Path = path
	return img, nil
}

// Process decodes data, scales it and re-encodes it. format is the source
// format name ("png", "jpeg", "webp", "gif"); empty means detect.
func (p *Processor) Process(data []byte, format, resize string) (*Image, error) {
	factor, err := ScaleFactor(resize)
	if err != nil {
		return nil, err
	}

	src, detected, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &global.ToolError{
			Kind:    global.KindInvalidArgument,
			Message: "failed to decode image",
			Err:     err,
		}
	}
	if format == "" {
		format = detected
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if width > p.maxWidth {
		height = int(float64(height) * float64(p.maxWidth) / float64(width))
		width = p.maxWidth
	}
	if factor != 1 {
		width = int(float64(width) * factor)
		height = int(float64(height) * factor)
	}
	width, height = max(width, 1), max(height, 1)

	out := src
	if width != b.Dx() || height != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	mime := MimePNG
	switch format {
	case "jpeg", "webp":
		mime = MimeJPEG
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.quality})
	default:
		err = png.Encode(&buf, out)
	}
	if err != nil {
		return nil, &global.ToolError{Kind: global.KindInternal, Message: "failed to encode image", Err: err}
	}

	p.logger.Debugf("Image %s %dx%d scaled to %dx%d as %s", format, b.Dx(), b.Dy(), width, height, mime)
	return &Image{
		MimeType:     mime,
		Width:        width,
		Height:       height,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
		Data:         buf.Bytes(),
	}, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".webp":
		return "webp"
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	}
	return ""
}

var screenshotName = regexp.MustCompile(`^Screenshot \d{4}-\d{2}-\d{2} at \d{1,2}\.\d{2}\.\d{2} (AM|PM|am|pm)(?: \(\d+\))?\.png$`)

// screenshotPath rewrites a macOS screenshot name typed with a plain space
// before AM/PM to the narrow no-break space the OS actually uses.
func screenshotPath(path string) string {
	dir, name := filepath.Split(path)
	m := screenshotName.FindStringSubmatchIndex(name)
	if m == nil {
		return path
	}
	pos := m[2] - 1
	if pos < 0 || name[pos] != ' ' {
		return path
	}
	return filepath.Join(dir, name[:pos]+"\u202f"+name[pos+1:])
}
